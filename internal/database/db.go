package database

import (
	"context"
	"errors"

	"lojistik-backend/internal/config"
	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		// Unique ihlalleri gorm.ErrDuplicatedKey olarak gelsin
		TranslateError: true,
	})
	if err != nil {
		logger.Log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatalf("AutoMigrate hatası: %v", err)
	}

	logger.Log.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: tüm tabloları oluşturur / günceller
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.CustomerBranch{},
		&models.Product{},
		&models.ImportJob{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
}

// IsUniqueViolation: unique constraint ihlali mi? (eşzamanlı import yarışları burada yakalanır)
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Ping: bağlantı havuzu üzerinden veritabanını yoklar
func Ping(ctx context.Context) error {
	if DB == nil {
		return errors.New("veritabanı başlatılmadı")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
