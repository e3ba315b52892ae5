package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lojistik-backend/internal/database"
	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/models"
	"lojistik-backend/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EntityCustomer       = "customer"
	EntityCustomerBranch = "customer_branch"
	EntityProduct        = "product"
	EntityImportBatch    = "import_batch"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// toJSON: nil değer veritabanına NULL olarak yazılır
func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func newLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: truncate(opts.Description, 255),
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
}

func WriteLog(opts LogOptions) error {
	return writeLog(database.DB, opts)
}

func writeLog(db *gorm.DB, opts LogOptions) error {
	log := newLog(opts)
	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// ImportRecorder: tamamlanan içe aktarımları "import_batch" kaydı olarak yazar
type ImportRecorder struct {
	db *gorm.DB
}

var _ importer.Auditor = (*ImportRecorder)(nil)

func NewImportRecorder(db *gorm.DB) *ImportRecorder {
	return &ImportRecorder{db: db}
}

func importDescription(job *models.ImportJob, s *importer.Summary) string {
	return fmt.Sprintf("%s içe aktarıldı (%s): %d sipariş oluşturuldu, %d atlandı, %d hata",
		job.Filename, s.Format, s.Created, s.Skipped, len(s.Errors))
}

func (r *ImportRecorder) RecordImport(ctx context.Context, userID uint, job *models.ImportJob, summary *importer.Summary) error {
	db := r.db.WithContext(ctx)

	var user models.User
	if userID != 0 {
		db.Select("id", "name").First(&user, userID)
	}

	return writeLog(db, LogOptions{
		UserID:      userID,
		UserName:    user.Name,
		EntityType:  EntityImportBatch,
		EntityID:    job.ID,
		Action:      models.AuditActionImport,
		Description: importDescription(job, summary),
		After:       summary,
	})
}

var (
	ErrAlreadyUndone = errors.New("bu işlem zaten geri alınmış")
	ErrNotUndoable   = errors.New("bu işlem türü geri alınamaz")
)

// UndoLog: bir audit log'u geri alır. Geri alma, log'un işaretlenmesi ve undo kaydı tek
// transaction'dır; log satırı kilitlendiği için aynı log iki kez geri alınamaz.
func UndoLog(ctx context.Context, logID uint, userID uint, userName string) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log bulunamadı: %w", err)
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}

		switch log.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, log.EntityType, log.EntityID); err != nil {
				return fmt.Errorf("entity silinemedi: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData); err != nil {
				return fmt.Errorf("entity geri yüklenemedi: %w", err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, log.EntityType, log.BeforeData); err != nil {
				return fmt.Errorf("entity geri oluşturulamadı: %w", err)
			}
		case models.AuditActionImport:
			if log.EntityType != EntityImportBatch {
				return ErrNotUndoable
			}
			if err := rollbackImport(ctx, tx, log.EntityID); err != nil {
				return fmt.Errorf("içe aktarım geri alınamadı: %w", err)
			}
		default:
			return ErrNotUndoable
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &userID
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("log güncellenemedi: %w", err)
		}

		return writeLog(tx, LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Geri alındı: " + log.Description,
			Before:      rawOrNil(log.AfterData),
			After:       rawOrNil(log.BeforeData),
		})
	})
}

func rawOrNil(j datatypes.JSON) any {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}

// rollbackImport: dağıtıma çıkmış siparişi olan batch için store.ErrBatchDispatched döner
func rollbackImport(ctx context.Context, tx *gorm.DB, jobID uint) error {
	var job models.ImportJob
	if err := tx.First(&job, jobID).Error; err != nil {
		return err
	}
	_, err := store.New(tx).DeleteBatch(ctx, job.BatchID)
	return err
}

func deleteEntity(db *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityCustomer:
		return db.Delete(&models.Customer{}, "id = ?", entityID).Error
	case EntityCustomerBranch:
		return db.Delete(&models.CustomerBranch{}, "id = ?", entityID).Error
	case EntityProduct:
		return db.Delete(&models.Product{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func recreateEntity(db *gorm.DB, entityType string, data datatypes.JSON) error {
	switch entityType {
	case EntityCustomer:
		var customer models.Customer
		if err := json.Unmarshal(data, &customer); err != nil {
			return err
		}
		customer.Branches = nil
		return db.Create(&customer).Error
	case EntityCustomerBranch:
		var branch models.CustomerBranch
		if err := json.Unmarshal(data, &branch); err != nil {
			return err
		}
		return db.Omit("Customer").Create(&branch).Error
	case EntityProduct:
		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			return err
		}
		return db.Create(&product).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func restoreEntity(db *gorm.DB, entityType string, entityID uint, data datatypes.JSON) error {
	switch entityType {
	case EntityCustomer:
		var customer models.Customer
		if err := json.Unmarshal(data, &customer); err != nil {
			return err
		}
		return db.Model(&models.Customer{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":    customer.Name,
			"phone":   customer.Phone,
			"address": customer.Address,
		}).Error
	case EntityCustomerBranch:
		var branch models.CustomerBranch
		if err := json.Unmarshal(data, &branch); err != nil {
			return err
		}
		return db.Model(&models.CustomerBranch{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"code":    branch.Code,
			"name":    branch.Name,
			"address": branch.Address,
		}).Error
	case EntityProduct:
		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			return err
		}
		return db.Model(&models.Product{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":      product.Name,
			"unit":      product.Unit,
			"sap_code":  product.SapCode,
			"sku":       product.SKU,
			"barcode":   product.Barcode,
			"is_active": product.IsActive,
		}).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
