package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSource string

const (
	OrderSourceManual   OrderSource = "manual"
	OrderSourceDetailed OrderSource = "detailed"
	OrderSourceRegistry OrderSource = "registry"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:  {OrderStatusDelivered, OrderStatusCancelled, OrderStatusNew},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func CanTransitionOrderStatus(from, to OrderStatus) bool {
	for _, next := range ValidOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order: müşteri siparişi. OrderNumber tüm içe aktarımlar boyunca tekildir.
type Order struct {
	ID               uint   `gorm:"primaryKey"`
	OrderNumber      string `gorm:"size:64;not null;uniqueIndex"`
	CustomerID       uint   `gorm:"index;not null"`
	Customer         Customer
	CustomerBranchID *uint `gorm:"index"`
	CustomerBranch   *CustomerBranch
	Source           OrderSource `gorm:"size:20;not null"`
	Status           OrderStatus `gorm:"size:20;not null;default:'new'"`
	// Aynı dosyadan gelen siparişler aynı batch'i paylaşır
	BatchID     string `gorm:"size:36;index"`
	ImportJobID *uint  `gorm:"index"`
	Note        string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	// Dosyadaki ham değerler, eşleşme kontrolü için saklanır
	MaterialCode string          `gorm:"size:50"`
	Description  string          `gorm:"size:255"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
