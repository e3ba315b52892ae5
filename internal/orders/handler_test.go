package orders

import (
	"testing"
	"time"

	"lojistik-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestToOrderResponse(t *testing.T) {
	branchID := uint(4)
	order := models.Order{
		ID:               1,
		OrderNumber:      "1001",
		CustomerID:       2,
		Customer:         models.Customer{ID: 2, Name: "Korzinka"},
		CustomerBranchID: &branchID,
		CustomerBranch:   &models.CustomerBranch{ID: 4, Code: "K001", Name: "Korzinka-A"},
		Source:           models.OrderSourceRegistry,
		Status:           models.OrderStatusNew,
		CreatedAt:        time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ID: 10, ProductID: 3, Product: models.Product{Name: "Muz 1kg", Unit: "kg"}, MaterialCode: "M1", Quantity: decimal.RequireFromString("5")},
		},
	}

	list := toOrderResponse(order, false)
	assert.Nil(t, list.Items)
	assert.Equal(t, 1, list.ItemCount)
	assert.Equal(t, "K001", list.BranchCode)
	assert.Equal(t, "2024-05-01 08:00:00", list.CreatedAt)

	detail := toOrderResponse(order, true)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Muz 1kg", detail.Items[0].ProductName)
	assert.Equal(t, "5", detail.Items[0].Quantity.String())
}

func TestToJobResponse(t *testing.T) {
	finished := time.Date(2024, 5, 1, 8, 0, 5, 0, time.UTC)
	job := models.ImportJob{
		ID:         1,
		Status:     models.ImportStatusDone,
		Summary:    datatypes.JSON(`{"created":2}`),
		FinishedAt: &finished,
	}

	resp := toJobResponse(job, true)
	require.NotNil(t, resp.FinishedAt)
	assert.Equal(t, "2024-05-01 08:00:05", *resp.FinishedAt)
	assert.JSONEq(t, `{"created":2}`, string(resp.Summary))

	assert.Empty(t, toJobResponse(job, false).Summary)
}
