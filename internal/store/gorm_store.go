package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lojistik-backend/internal/database"
	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore: içe aktarım hattının katalog, sipariş ve iş kayıtları için kullandığı store
type GormStore struct {
	db *gorm.DB
}

var (
	_ importer.Catalog    = (*GormStore)(nil)
	_ importer.OrderStore = (*GormStore)(nil)
	_ importer.JobStore   = (*GormStore)(nil)
)

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var productColumns = map[importer.ProductKey]string{
	importer.ProductKeySAP:     "sap_code",
	importer.ProductKeySKU:     "sku",
	importer.ProductKeyBarcode: "barcode",
}

// FindProduct: code zaten normalize edilmiş gelir (boşluksuz, büyük harf)
func (s *GormStore) FindProduct(ctx context.Context, key importer.ProductKey, code string) (*models.Product, error) {
	col, ok := productColumns[key]
	if !ok {
		return nil, fmt.Errorf("bilinmeyen ürün anahtarı: %s", key)
	}
	if code == "" {
		return nil, nil
	}

	var p models.Product
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(fmt.Sprintf("UPPER(REPLACE(%s, ' ', '')) = ?", col), code).
		Order("id ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductNames: öneri eşleştiricisi için aktif ürün adları
func (s *GormStore) ProductNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (s *GormStore) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) FindCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, nil
	}
	var c models.Customer
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveOrCreateBranch: şube yoksa dosyadaki kod ve isimle açar.
// Eşzamanlı iki import aynı şubeyi açmaya çalışırsa kaybeden taraf mevcut kaydı okur.
func (s *GormStore) ResolveOrCreateBranch(ctx context.Context, customerID uint, code, name string) (*models.CustomerBranch, bool, error) {
	db := s.db.WithContext(ctx)

	var b models.CustomerBranch
	err := db.Where("customer_id = ? AND code = ?", customerID, code).First(&b).Error
	if err == nil {
		return &b, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if name == "" {
		name = code
	}
	b = models.CustomerBranch{
		CustomerID:  customerID,
		Code:        code,
		Name:        name,
		AutoCreated: true,
	}
	if err := db.Create(&b).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, err
		}
		var existing models.CustomerBranch
		if err := db.Where("customer_id = ? AND code = ?", customerID, code).First(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return &b, true, nil
}

func (s *GormStore) OrderExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateOrder: sipariş ve kalemleri tek transaction. Numara çakışması ErrDuplicateOrder döner.
func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			order.Items = items
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		order.Items = items
		if len(items) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&order.Items).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %w", order.OrderNumber, importer.ErrDuplicateOrder)
		}
		return err
	}
	return nil
}

func (s *GormStore) CreateJob(ctx context.Context, job *models.ImportJob) error {
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *GormStore) SaveJob(ctx context.Context, job *models.ImportJob) error {
	return s.db.WithContext(ctx).Save(job).Error
}

// ErrBatchDispatched: batch içinde atanmış veya teslim edilmiş sipariş var, geri alınamaz
var ErrBatchDispatched = errors.New("batch içinde dağıtıma çıkmış sipariş var")

// FindJobByBatch: batch'i oluşturan içe aktarım işi. Yoksa gorm.ErrRecordNotFound döner.
func (s *GormStore) FindJobByBatch(ctx context.Context, batchID string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteBatch: bir yüklemeden gelen tüm siparişleri kalemleriyle birlikte siler. Siparişler
// transaction boyunca kilitlenir; aralarında atanmış veya teslim edilmiş olan varsa hiçbir şey
// silinmez ve ErrBatchDispatched döner.
func (s *GormStore) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var statuses []models.OrderStatus
		if err := tx.Model(&models.Order{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", batchID).
			Pluck("status", &statuses).Error; err != nil {
			return err
		}
		if n := countDispatched(statuses); n > 0 {
			return fmt.Errorf("%d sipariş: %w", n, ErrBatchDispatched)
		}

		sub := tx.Model(&models.Order{}).Select("id").Where("batch_id = ?", batchID)
		if err := tx.Where("order_id IN (?)", sub).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("batch_id = ?", batchID).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func countDispatched(statuses []models.OrderStatus) int {
	n := 0
	for _, st := range statuses {
		if st == models.OrderStatusAssigned || st == models.OrderStatusDelivered {
			n++
		}
	}
	return n
}
