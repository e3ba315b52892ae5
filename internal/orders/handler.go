package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lojistik-backend/internal/audit"
	"lojistik-backend/internal/auth"
	"lojistik-backend/internal/database"
	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"
	"lojistik-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItemResponse struct {
	ID           uint            `json:"id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Unit         string          `json:"unit"`
	MaterialCode string          `json:"material_code"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type OrderResponse struct {
	ID           uint                `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerID   uint                `json:"customer_id"`
	CustomerName string              `json:"customer_name"`
	BranchID     *uint               `json:"branch_id"`
	BranchCode   string              `json:"branch_code"`
	BranchName   string              `json:"branch_name"`
	Source       models.OrderSource  `json:"source"`
	Status       models.OrderStatus  `json:"status"`
	BatchID      string              `json:"batch_id"`
	ImportJobID  *uint               `json:"import_job_id"`
	Note         string              `json:"note"`
	CreatedAt    string              `json:"created_at"`
	Items        []OrderItemResponse `json:"items,omitempty"`
	ItemCount    int                 `json:"item_count"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
	Note   *string            `json:"note"`
}

func toOrderResponse(o models.Order, withItems bool) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerID:   o.CustomerID,
		CustomerName: o.Customer.Name,
		BranchID:     o.CustomerBranchID,
		Source:       o.Source,
		Status:       o.Status,
		BatchID:      o.BatchID,
		ImportJobID:  o.ImportJobID,
		Note:         o.Note,
		CreatedAt:    o.CreatedAt.Format("2006-01-02 15:04:05"),
		ItemCount:    len(o.Items),
	}
	if o.CustomerBranch != nil {
		resp.BranchCode = o.CustomerBranch.Code
		resp.BranchName = o.CustomerBranch.Name
	}
	if withItems {
		resp.Items = make([]OrderItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			resp.Items = append(resp.Items, OrderItemResponse{
				ID:           it.ID,
				ProductID:    it.ProductID,
				ProductName:  it.Product.Name,
				Unit:         it.Product.Unit,
				MaterialCode: it.MaterialCode,
				Description:  it.Description,
				Quantity:     it.Quantity,
			})
		}
	}
	return resp
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GET /api/orders?status=new&batch_id=...&customer_id=1&source=registry&from=2024-05-01&to=2024-05-31&q=1001
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Order{})

		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("status = ?", v)
		}
		if v := c.Query("batch_id"); v != "" {
			dbq = dbq.Where("batch_id = ?", v)
		}
		if v := c.QueryInt("customer_id", 0); v > 0 {
			dbq = dbq.Where("customer_id = ?", v)
		}
		if v := c.QueryInt("branch_id", 0); v > 0 {
			dbq = dbq.Where("customer_branch_id = ?", v)
		}
		if v := c.Query("source"); v != "" {
			dbq = dbq.Where("source = ?", v)
		}
		if v := strings.TrimSpace(c.Query("q")); v != "" {
			dbq = dbq.Where("order_number ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("from"); v != "" {
			from, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi, format: YYYY-MM-DD")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if v := c.Query("to"); v != "" {
			to, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi, format: YYYY-MM-DD")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
		}

		limit, offset := pagination(c)
		var orders []models.Order
		if err := dbq.
			Preload("Customer").
			Preload("CustomerBranch").
			Preload("Items").
			Order("created_at DESC, id DESC").
			Limit(limit).Offset(offset).
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		res := make([]OrderResponse, 0, len(orders))
		for _, o := range orders {
			res = append(res, toOrderResponse(o, false))
		}
		return c.JSON(fiber.Map{
			"total":  total,
			"limit":  limit,
			"offset": offset,
			"orders": res,
		})
	}
}

// GET /api/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var order models.Order
		if err := database.DB.
			Preload("Customer").
			Preload("CustomerBranch").
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			Preload("Items.Product").
			First(&order, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		return c.JSON(toOrderResponse(order, true))
	}
}

// PATCH /api/orders/:id/status
func UpdateOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var order models.Order
		if err := database.DB.First(&order, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		var body UpdateOrderStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if !models.CanTransitionOrderStatus(order.Status, body.Status) {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Sipariş durumu %s → %s değiştirilemez", order.Status, body.Status))
		}

		updates := map[string]interface{}{"status": body.Status}
		if body.Note != nil {
			updates["note"] = strings.TrimSpace(*body.Note)
		}
		// Okunan durum hâlâ geçerliyse güncellenir; arada değişmiş ya da silinmişse 409
		res := database.DB.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Sipariş bu sırada değiştirildi, tekrar deneyin")
		}

		return c.JSON(fiber.Map{
			"id":     order.ID,
			"status": body.Status,
		})
	}
}

// BatchStore: bir yüklemeden gelen siparişleri toplu siler
type BatchStore interface {
	FindJobByBatch(ctx context.Context, batchID string) (*models.ImportJob, error)
	DeleteBatch(ctx context.Context, batchID string) (int64, error)
}

// AuditWriter: audit.WriteLog imzası
type AuditWriter func(opts audit.LogOptions) error

// DELETE /api/admin/import-batches/:batchId
func RollbackBatchHandler(batches BatchStore, writeAudit AuditWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		batchID := c.Params("batchId")
		if _, err := uuid.Parse(batchID); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz batch ID")
		}

		job, err := batches.FindJobByBatch(c.UserContext(), batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "İçe aktarım bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "İçe aktarım okunamadı")
		}

		deleted, err := batches.DeleteBatch(c.UserContext(), batchID)
		if err != nil {
			if errors.Is(err, store.ErrBatchDispatched) {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Batch geri alınamaz: %v", err))
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Batch silinemedi")
		}

		userID, userName := auth.CurrentUser(c)
		if err := writeAudit(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityImportBatch,
			EntityID:    job.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("%s içe aktarımı geri alındı, %d sipariş silindi", job.Filename, deleted),
			Before:      fiber.Map{"batch_id": batchID, "created": job.Created},
		}); err != nil {
			logger.Log.WithError(err).WithField("batch_id", batchID).Warn("Audit log yazılamadı")
		}

		return c.JSON(fiber.Map{
			"batch_id": batchID,
			"deleted":  deleted,
		})
	}
}
