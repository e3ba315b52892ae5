package catalog

import (
	"errors"
	"strings"

	"lojistik-backend/internal/audit"
	"lojistik-backend/internal/auth"
	"lojistik-backend/internal/database"
	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

type CustomerRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type BranchResponse struct {
	ID          uint   `json:"id"`
	CustomerID  uint   `json:"customer_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	AutoCreated bool   `json:"auto_created"`
	CreatedAt   string `json:"created_at"`
}

type BranchRequest struct {
	Code    *string `json:"code"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func toCustomerResponse(c models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toBranchResponse(b models.CustomerBranch) BranchResponse {
	return BranchResponse{
		ID:          b.ID,
		CustomerID:  b.CustomerID,
		Code:        b.Code,
		Name:        b.Name,
		Address:     b.Address,
		AutoCreated: b.AutoCreated,
		CreatedAt:   b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// writeAudit: audit log hatası işlemi geri almaz, sadece loglanır
func writeAudit(c *fiber.Ctx, opts audit.LogOptions) {
	opts.UserID, opts.UserName = auth.CurrentUser(c)
	if err := audit.WriteLog(opts); err != nil {
		logger.Log.WithError(err).WithField("entity_type", opts.EntityType).Warn("Audit log yazılamadı")
	}
}

func trimPtr(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// ----------------------------------------
// MÜŞTERİ CRUD
// ----------------------------------------

// GET /api/customers?q=korz
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+q+"%")
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			res = append(res, toCustomerResponse(cu))
		}
		return c.JSON(res)
	}
}

func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}
		return c.JSON(toCustomerResponse(customer))
	}
}

// POST /api/admin/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		customer := models.Customer{
			Name:    strings.Join(strings.Fields(trimPtr(body.Name)), " "),
			Phone:   trimPtr(body.Phone),
			Address: trimPtr(body.Address),
		}
		if customer.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
		}

		if err := database.DB.Create(&customer).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde müşteri zaten var")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomer,
			EntityID:    customer.ID,
			Action:      models.AuditActionCreate,
			Description: "Müşteri oluşturuldu: " + customer.Name,
			After:       customer,
		})
		return c.Status(fiber.StatusCreated).JSON(toCustomerResponse(customer))
	}
}

// PUT /api/admin/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}
		before := customer

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.Join(strings.Fields(*body.Name), " ")
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
			}
			customer.Name = name
		}
		if body.Phone != nil {
			customer.Phone = trimPtr(body.Phone)
		}
		if body.Address != nil {
			customer.Address = trimPtr(body.Address)
		}

		if err := database.DB.Omit("Branches").Save(&customer).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde müşteri zaten var")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomer,
			EntityID:    customer.ID,
			Action:      models.AuditActionUpdate,
			Description: "Müşteri güncellendi: " + customer.Name,
			Before:      before,
			After:       customer,
		})
		return c.JSON(toCustomerResponse(customer))
	}
}

// errHasOrders: silinmek istenen kayda bağlı sipariş var
var errHasOrders = errors.New("kayda bağlı sipariş var")

// DELETE /api/admin/customers/:id: siparişi olan müşteri silinemez, şubeleri müşteriyle birlikte silinir
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			var orders int64
			if err := tx.Model(&models.Order{}).Where("customer_id = ?", customer.ID).Count(&orders).Error; err != nil {
				return err
			}
			if orders > 0 {
				return errHasOrders
			}
			if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.CustomerBranch{}).Error; err != nil {
				return err
			}
			return tx.Delete(&customer).Error
		})
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		case errors.Is(err, errHasOrders):
			return fiber.NewError(fiber.StatusConflict, "Müşterinin siparişleri var, silinemez")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomer,
			EntityID:    customer.ID,
			Action:      models.AuditActionDelete,
			Description: "Müşteri silindi: " + customer.Name,
			Before:      customer,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// MÜŞTERİ ŞUBELERİ
// ----------------------------------------

// GET /api/customers/:id/branches?auto_created=true
func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Where("customer_id = ?", c.Params("id"))
		if v := c.Query("auto_created"); v != "" {
			dbq = dbq.Where("auto_created = ?", v == "true")
		}

		var branches []models.CustomerBranch
		if err := dbq.Order("code asc").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/customers/:id/branches
func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		branch := models.CustomerBranch{
			CustomerID: customer.ID,
			Code:       importer.NormalizeCode(trimPtr(body.Code)),
			Name:       trimPtr(body.Name),
			Address:    trimPtr(body.Address),
		}
		if branch.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube kodu boş olamaz")
		}
		if branch.Name == "" {
			branch.Name = branch.Code
		}

		if err := database.DB.Omit("Customer").Create(&branch).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Bu şube kodu müşteride zaten kayıtlı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomerBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionCreate,
			Description: customer.Name + " şubesi oluşturuldu: " + branch.Code,
			After:       branch,
		})
		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(branch))
	}
}

// PUT /api/admin/branches/:id: otomatik açılan şubeler düzenlenince AutoCreated kalkar
func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branch models.CustomerBranch
		if err := database.DB.First(&branch, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}
		before := branch

		var body BranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Code != nil {
			code := importer.NormalizeCode(*body.Code)
			if code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube kodu boş olamaz")
			}
			branch.Code = code
		}
		if body.Name != nil {
			branch.Name = trimPtr(body.Name)
		}
		if body.Address != nil {
			branch.Address = trimPtr(body.Address)
		}
		branch.AutoCreated = false

		if err := database.DB.Omit("Customer").Save(&branch).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Bu şube kodu müşteride zaten kayıtlı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomerBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: "Şube güncellendi: " + branch.Code,
			Before:      before,
			After:       branch,
		})
		return c.JSON(toBranchResponse(branch))
	}
}

// DELETE /api/admin/branches/:id
func DeleteBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branch models.CustomerBranch
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&branch, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			var orders int64
			if err := tx.Model(&models.Order{}).Where("customer_branch_id = ?", branch.ID).Count(&orders).Error; err != nil {
				return err
			}
			if orders > 0 {
				return errHasOrders
			}
			return tx.Delete(&branch).Error
		})
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		case errors.Is(err, errHasOrders):
			return fiber.NewError(fiber.StatusConflict, "Şubenin siparişleri var, silinemez")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityCustomerBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionDelete,
			Description: "Şube silindi: " + branch.Code,
			Before:      branch,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
