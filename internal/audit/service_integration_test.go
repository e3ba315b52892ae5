//go:build integration

package audit

import (
	"context"
	"errors"
	"os"
	"testing"

	"lojistik-backend/internal/database"
	"lojistik-backend/internal/models"
	"lojistik-backend/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TEST_DATABASE_DSN ile gerçek postgres üzerinde çalışır: go test -tags integration ./internal/audit/
type UndoSuite struct {
	suite.Suite
	db     *gorm.DB
	ctx    context.Context
	prefix string
}

func (s *UndoSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=lojistik_test port=5432 sslmode=disable"
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		s.T().Fatalf("veritabanına bağlanılamadı: %v", err)
	}
	s.Require().NoError(database.Migrate(db))
	s.db = db
	database.DB = db
	s.ctx = context.Background()
}

func (s *UndoSuite) SetupTest() {
	s.prefix = "U" + uuid.NewString()[:8]
}

func (s *UndoSuite) TearDownTest() {
	like := s.prefix + "%"
	s.db.Exec("DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE order_number LIKE ?)", like)
	s.db.Exec("DELETE FROM orders WHERE order_number LIKE ?", like)
	s.db.Exec("DELETE FROM import_jobs WHERE filename LIKE ?", like)
	s.db.Exec("DELETE FROM customer_branches WHERE customer_id IN (SELECT id FROM customers WHERE name LIKE ?)", like)
	s.db.Exec("DELETE FROM customers WHERE name LIKE ?", like)
	s.db.Exec("DELETE FROM products WHERE name LIKE ?", like)
	s.db.Exec("DELETE FROM audit_logs WHERE description LIKE ?", "%"+s.prefix+"%")
}

func (s *UndoSuite) log(opts LogOptions) models.AuditLog {
	s.Require().NoError(WriteLog(opts))
	var log models.AuditLog
	s.Require().NoError(s.db.Where("entity_type = ? AND action = ? AND description = ?", opts.EntityType, opts.Action, truncate(opts.Description, 255)).
		Order("id DESC").First(&log).Error)
	return log
}

func (s *UndoSuite) customer(name string) models.Customer {
	c := models.Customer{Name: s.prefix + " " + name}
	s.Require().NoError(s.db.Create(&c).Error)
	return c
}

func (s *UndoSuite) TestUndoCreateDeletesEntity() {
	c := s.customer("Korzinka")
	log := s.log(LogOptions{EntityType: EntityCustomer, EntityID: c.ID, Action: models.AuditActionCreate,
		Description: "Müşteri oluşturuldu: " + c.Name, After: c})

	s.Require().NoError(UndoLog(s.ctx, log.ID, 1, "admin"))

	var count int64
	s.db.Model(&models.Customer{}).Where("id = ?", c.ID).Count(&count)
	s.Zero(count)

	var got models.AuditLog
	s.Require().NoError(s.db.First(&got, log.ID).Error)
	s.True(got.IsUndone)
	s.Require().NotNil(got.UndoneBy)
	s.Equal(uint(1), *got.UndoneBy)

	var undo int64
	s.db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ? AND action = ?", EntityCustomer, c.ID, models.AuditActionUndo).Count(&undo)
	s.Equal(int64(1), undo)
}

func (s *UndoSuite) TestUndoUpdateRestoresBefore() {
	p := models.Product{Name: s.prefix + " Muz", Unit: "kg", SapCode: s.prefix + "M1", IsActive: true}
	s.Require().NoError(s.db.Create(&p).Error)
	before := p

	p.Name = s.prefix + " Muz yeni"
	p.IsActive = false
	s.Require().NoError(s.db.Save(&p).Error)
	log := s.log(LogOptions{EntityType: EntityProduct, EntityID: p.ID, Action: models.AuditActionUpdate,
		Description: "Ürün güncellendi: " + p.Name, Before: before, After: p})

	s.Require().NoError(UndoLog(s.ctx, log.ID, 1, "admin"))

	var got models.Product
	s.Require().NoError(s.db.First(&got, p.ID).Error)
	s.Equal(before.Name, got.Name)
	s.True(got.IsActive)
}

func (s *UndoSuite) TestUndoDeleteRecreatesEntity() {
	c := s.customer("Makro")
	branch := models.CustomerBranch{CustomerID: c.ID, Code: "K001", Name: "Makro-1"}
	s.Require().NoError(s.db.Omit("Customer").Create(&branch).Error)
	s.Require().NoError(s.db.Delete(&branch).Error)

	log := s.log(LogOptions{EntityType: EntityCustomerBranch, EntityID: branch.ID, Action: models.AuditActionDelete,
		Description: "Şube silindi: " + s.prefix, Before: branch})

	s.Require().NoError(UndoLog(s.ctx, log.ID, 1, "admin"))

	var got models.CustomerBranch
	s.Require().NoError(s.db.First(&got, branch.ID).Error)
	s.Equal("K001", got.Code)
	s.Equal(c.ID, got.CustomerID)
}

func (s *UndoSuite) TestUndoTwiceRejected() {
	c := s.customer("Havas")
	log := s.log(LogOptions{EntityType: EntityCustomer, EntityID: c.ID, Action: models.AuditActionCreate,
		Description: "Müşteri oluşturuldu: " + c.Name})

	s.Require().NoError(UndoLog(s.ctx, log.ID, 1, "admin"))
	err := UndoLog(s.ctx, log.ID, 1, "admin")
	s.True(errors.Is(err, ErrAlreadyUndone))
}

func (s *UndoSuite) TestUndoUnknownLog() {
	err := UndoLog(s.ctx, 0x7fffffff, 1, "admin")
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *UndoSuite) TestProductImportNotUndoable() {
	log := s.log(LogOptions{EntityType: EntityProduct, EntityID: 0, Action: models.AuditActionImport,
		Description: s.prefix + ".xlsx ürün listesi içe aktarıldı"})

	err := UndoLog(s.ctx, log.ID, 1, "admin")
	s.True(errors.Is(err, ErrNotUndoable))

	var got models.AuditLog
	s.Require().NoError(s.db.First(&got, log.ID).Error)
	s.False(got.IsUndone)
}

func (s *UndoSuite) importBatch(statuses ...models.OrderStatus) (models.ImportJob, models.AuditLog) {
	c := s.customer("Batch")
	p := models.Product{Name: s.prefix + " Elma", SapCode: s.prefix + "E1", IsActive: true}
	s.Require().NoError(s.db.Create(&p).Error)

	job := models.ImportJob{BatchID: uuid.NewString(), Filename: s.prefix + ".xlsx", Status: models.ImportStatusDone}
	s.Require().NoError(s.db.Create(&job).Error)

	st := store.New(s.db)
	for i, status := range statuses {
		s.Require().NoError(st.CreateOrder(s.ctx, &models.Order{
			OrderNumber: s.prefix + "-" + string(rune('A'+i)),
			CustomerID:  c.ID,
			Source:      models.OrderSourceRegistry,
			Status:      status,
			BatchID:     job.BatchID,
			Items:       []models.OrderItem{{ProductID: p.ID, MaterialCode: "E1", Quantity: decimal.NewFromInt(1)}},
		}))
	}

	log := s.log(LogOptions{EntityType: EntityImportBatch, EntityID: job.ID, Action: models.AuditActionImport,
		Description: job.Filename + " içe aktarıldı"})
	return job, log
}

func (s *UndoSuite) TestUndoImportRollsBackBatch() {
	job, log := s.importBatch(models.OrderStatusNew, models.OrderStatusCancelled)

	s.Require().NoError(UndoLog(s.ctx, log.ID, 1, "admin"))

	var count int64
	s.db.Model(&models.Order{}).Where("batch_id = ?", job.BatchID).Count(&count)
	s.Zero(count)
}

func (s *UndoSuite) TestUndoImportRefusedWhenDispatched() {
	job, log := s.importBatch(models.OrderStatusNew, models.OrderStatusDelivered)

	err := UndoLog(s.ctx, log.ID, 1, "admin")
	s.True(errors.Is(err, store.ErrBatchDispatched))

	var count int64
	s.db.Model(&models.Order{}).Where("batch_id = ?", job.BatchID).Count(&count)
	s.Equal(int64(2), count)

	var got models.AuditLog
	s.Require().NoError(s.db.First(&got, log.ID).Error)
	s.False(got.IsUndone, "başarısız geri alma log'u işaretlemez")
}

func TestUndoSuite(t *testing.T) {
	suite.Run(t, new(UndoSuite))
}
