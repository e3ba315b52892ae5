package models

import "time"

// Product: katalogdaki ürün. Dosyalardaki malzeme kodu SAP kodu, SKU veya barkod ile eşleşir.
type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	Unit      string `gorm:"size:20;not null;default:'adet'"`
	SapCode   string `gorm:"size:50;index"`
	SKU       string `gorm:"size:50;index"`
	Barcode   string `gorm:"size:50;index"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
