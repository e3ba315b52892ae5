package importer

import (
	"context"
	"errors"

	"lojistik-backend/internal/models"
)

// OrderStore: sipariş numarası tekilliğini store garanti eder.
// CreateOrder sipariş ve kalemlerini tek transaction içinde yazar; numara başka bir
// işlemde kaydedildiyse ErrDuplicateOrder ile sarılmış hata döner.
type OrderStore interface {
	OrderExists(ctx context.Context, orderNumber string) (bool, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

type persistOutcome int

const (
	outcomeCreated persistOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func buildOrder(ro *ResolvedOrder, job *models.ImportJob) *models.Order {
	order := &models.Order{
		OrderNumber:      ro.Parsed.OrderNumber,
		CustomerID:       ro.CustomerID,
		CustomerBranchID: ro.BranchID,
		Source:           orderSource(ro.Parsed.Source),
		Status:           models.OrderStatusNew,
		BatchID:          job.BatchID,
	}
	if job.ID != 0 {
		id := job.ID
		order.ImportJobID = &id
	}
	for _, it := range ro.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    it.ProductID,
			MaterialCode: it.Parsed.MaterialCode,
			Description:  it.Parsed.ProductDescription,
			Quantity:     it.Parsed.Quantity,
		})
	}
	return order
}

func orderSource(s SourceType) models.OrderSource {
	if s == SourceRegistry {
		return models.OrderSourceRegistry
	}
	return models.OrderSourceDetailed
}

// persistOrder: her sipariş kendi transaction sınırıdır. Kayıtlı numara atlanır,
// hata alan sipariş diğerlerini geri almaz.
func persistOrder(ctx context.Context, store OrderStore, ro *ResolvedOrder, job *models.ImportJob) (persistOutcome, error) {
	number := ro.Parsed.OrderNumber

	exists, err := store.OrderExists(ctx, number)
	if err != nil {
		return outcomeFailed, &PersistenceError{OrderNumber: number, Err: err}
	}
	if exists {
		return outcomeSkipped, nil
	}

	if err := store.CreateOrder(ctx, buildOrder(ro, job)); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			// Eşzamanlı başka bir import aynı numarayı önce yazdı
			return outcomeFailed, &PersistenceError{OrderNumber: number, Err: ErrDuplicateOrder}
		}
		return outcomeFailed, &PersistenceError{OrderNumber: number, Err: err}
	}
	return outcomeCreated, nil
}
