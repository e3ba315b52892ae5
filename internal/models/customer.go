package models

import "time"

// Customer: sipariş veren firma (ör. market zinciri)
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;uniqueIndex"`
	Phone     string `gorm:"size:50"`
	Address   string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branches []CustomerBranch `gorm:"foreignKey:CustomerID"`
}

// CustomerBranch: müşterinin teslimat noktası. Kod müşteri içinde tekildir.
type CustomerBranch struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"not null;uniqueIndex:idx_customer_branch_code"`
	Customer   Customer
	Code       string `gorm:"size:50;not null;uniqueIndex:idx_customer_branch_code"`
	Name       string `gorm:"size:150"`
	Address    string `gorm:"size:255"`
	// Sipariş dosyası içe aktarılırken otomatik açıldıysa true
	AutoCreated bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
