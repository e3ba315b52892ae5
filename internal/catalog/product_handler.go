package catalog

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"lojistik-backend/internal/audit"
	"lojistik-backend/internal/database"
	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	SapCode  string `json:"sap_code"`
	SKU      string `json:"sku"`
	Barcode  string `json:"barcode"`
	IsActive bool   `json:"is_active"`
}

type CreateProductRequest struct {
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	SapCode string `json:"sap_code"`
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
}

type UpdateProductRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	SapCode  *string `json:"sap_code"`
	SKU      *string `json:"sku"`
	Barcode  *string `json:"barcode"`
	IsActive *bool   `json:"is_active"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Unit:     p.Unit,
		SapCode:  p.SapCode,
		SKU:      p.SKU,
		Barcode:  p.Barcode,
		IsActive: p.IsActive,
	}
}

// CodeConflictError: kod başka bir aktif üründe kullanılıyor
type CodeConflictError struct {
	Label string
	Code  string
}

func (e *CodeConflictError) Error() string {
	return "Bu " + e.Label + " zaten kullanılıyor: " + e.Code
}

// codeTaken: aynı kod başka bir aktif üründe kullanılıyor mu?
func codeTaken(db *gorm.DB, column, code string, exceptID uint) (bool, error) {
	if code == "" {
		return false, nil
	}
	var count int64
	if err := db.Model(&models.Product{}).
		Where(column+" = ? AND is_active = ? AND id <> ?", code, true, exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// findCodeConflict: çakışma varsa *CodeConflictError, sorgu hatasında hatanın kendisi
func findCodeConflict(db *gorm.DB, p *models.Product) error {
	for _, c := range []struct{ column, code, label string }{
		{"sap_code", p.SapCode, "SAP kodu"},
		{"sku", p.SKU, "SKU"},
		{"barcode", p.Barcode, "Barkod"},
	} {
		taken, err := codeTaken(db, c.column, c.code, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return &CodeConflictError{Label: c.label, Code: c.code}
		}
	}
	return nil
}

func checkCodes(db *gorm.DB, p *models.Product) error {
	err := findCodeConflict(db, p)
	var conflict *CodeConflictError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict):
		return fiber.NewError(fiber.StatusBadRequest, conflict.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Ürün kodları kontrol edilemedi")
	}
}

// GET /api/products?q=muz&include_inactive=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			code := importer.NormalizeCode(q)
			dbq = dbq.Where("name ILIKE ? OR sap_code = ? OR sku = ? OR barcode = ?", like, code, code, code)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		p := models.Product{
			Name:     strings.TrimSpace(body.Name),
			Unit:     strings.TrimSpace(body.Unit),
			SapCode:  importer.NormalizeCode(body.SapCode),
			SKU:      importer.NormalizeCode(body.SKU),
			Barcode:  importer.NormalizeCode(body.Barcode),
			IsActive: true,
		}
		if p.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün adı zorunlu")
		}
		if p.Unit == "" {
			p.Unit = "adet"
		}
		if p.SapCode == "" && p.SKU == "" && p.Barcode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "SAP kodu, SKU veya barkoddan en az biri zorunlu")
		}
		if err := checkCodes(database.DB, &p); err != nil {
			return err
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "Ürün oluşturuldu: " + p.Name,
			After:       p,
		})
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		before := p

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün adı boş olamaz")
			}
			p.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Birim boş olamaz")
			}
			p.Unit = unit
		}
		if body.SapCode != nil {
			p.SapCode = importer.NormalizeCode(*body.SapCode)
		}
		if body.SKU != nil {
			p.SKU = importer.NormalizeCode(*body.SKU)
		}
		if body.Barcode != nil {
			p.Barcode = importer.NormalizeCode(*body.Barcode)
		}
		if body.IsActive != nil {
			p.IsActive = *body.IsActive
		}
		if p.IsActive {
			if err := checkCodes(database.DB, &p); err != nil {
				return err
			}
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: "Ürün güncellendi: " + p.Name,
			Before:      before,
			After:       p,
		})
		return c.JSON(toProductResponse(p))
	}
}

// DELETE /api/admin/products/:id: siparişlerde geçen ürün pasife alınır
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			p, before   models.Product
			deactivated bool
		)
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			before = p
			var used int64
			if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", p.ID).Count(&used).Error; err != nil {
				return err
			}
			if used > 0 {
				deactivated = true
				p.IsActive = false
				return tx.Model(&p).Update("is_active", false).Error
			}
			return tx.Delete(&p).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		if deactivated {
			writeAudit(c, audit.LogOptions{
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ürün pasife alındı: " + p.Name,
				Before:      before,
				After:       p,
			})
			return c.SendStatus(fiber.StatusNoContent)
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "Ürün silindi: " + p.Name,
			Before:      p,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ProductRow: katalog dosyasındaki tek ürün satırı
type ProductRow struct {
	Row     int
	Name    string
	Unit    string
	SapCode string
	SKU     string
	Barcode string
}

var productHeaderAliases = map[string][]string{
	"name":    {"наименование", "name", "ürün adı", "nomi"},
	"unit":    {"ед", "unit", "birim", "o'lchov"},
	"sap":     {"sap", "код товара", "material"},
	"sku":     {"sku", "артикул", "stok kodu"},
	"barcode": {"штрих", "barcode", "barkod", "ean"},
}

// ParseProductRows: ilk satır başlıktır. Adı olmayan veya hiç kodu olmayan satırlar atlanır.
func ParseProductRows(rows []importer.RawRow) ([]ProductRow, []string) {
	if len(rows) < 2 {
		return nil, []string{"dosyada başlık ve en az bir ürün satırı olmalı"}
	}

	cols := map[string]int{"name": -1, "unit": -1, "sap": -1, "sku": -1, "barcode": -1}
	for i, cell := range rows[0] {
		text := importer.NormalizeName(cell.String())
		for _, field := range []string{"sap", "sku", "barcode", "unit", "name"} {
			if cols[field] >= 0 {
				continue
			}
			if matchesAny(text, productHeaderAliases[field]) {
				cols[field] = i
				break
			}
		}
	}
	if cols["name"] < 0 {
		return nil, []string{"başlıkta ürün adı kolonu bulunamadı"}
	}

	var (
		out      []ProductRow
		problems []string
	)
	for i := 1; i < len(rows); i++ {
		r := rows[i]
		if r.IsBlank() {
			continue
		}
		pr := ProductRow{
			Row:     i + 1,
			Name:    r.Text(cols["name"]),
			Unit:    r.Text(cols["unit"]),
			SapCode: importer.NormalizeCode(r.Text(cols["sap"])),
			SKU:     importer.NormalizeCode(r.Text(cols["sku"])),
			Barcode: importer.NormalizeCode(r.Text(cols["barcode"])),
		}
		if pr.Name == "" {
			problems = append(problems, fmt.Sprintf("satır %d: ürün adı yok", pr.Row))
			continue
		}
		if pr.SapCode == "" && pr.SKU == "" && pr.Barcode == "" {
			problems = append(problems, fmt.Sprintf("satır %d: %s için kod yok", pr.Row, pr.Name))
			continue
		}
		out = append(out, pr)
	}
	return out, problems
}

// findProductForRow: satırdaki kodlarla aktif ürünü SAP kodu, SKU, barkod sırasıyla arar; yoksa nil
func findProductForRow(db *gorm.DB, pr ProductRow) (*models.Product, error) {
	for _, c := range []struct{ column, code string }{
		{"sap_code", pr.SapCode},
		{"sku", pr.SKU},
		{"barcode", pr.Barcode},
	} {
		if c.code == "" {
			continue
		}
		var p models.Product
		err := db.Where(c.column+" = ? AND is_active = ?", c.code, true).Order("id").First(&p).Error
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// upsertProductRow: satırı mevcut ürüne yazar veya yeni ürün ekler. Kodlardan biri başka bir
// aktif üründe kullanılıyorsa *CodeConflictError döner ve hiçbir şey yazılmaz.
func upsertProductRow(db *gorm.DB, pr ProductRow) (created bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		existing, err := findProductForRow(tx, pr)
		if err != nil {
			return err
		}
		p := models.Product{Unit: "adet"}
		if existing != nil {
			p = *existing
		}
		created = existing == nil

		p.Name = pr.Name
		if pr.Unit != "" {
			p.Unit = pr.Unit
		}
		if pr.SapCode != "" {
			p.SapCode = pr.SapCode
		}
		if pr.SKU != "" {
			p.SKU = pr.SKU
		}
		if pr.Barcode != "" {
			p.Barcode = pr.Barcode
		}
		p.IsActive = true

		if err := findCodeConflict(tx, &p); err != nil {
			return err
		}
		return tx.Save(&p).Error
	})
	return created, err
}

func matchesAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, importer.NormalizeName(sub)) {
			return true
		}
	}
	return false
}

// POST /api/admin/products/import (multipart "file"): SAP kodu eşleşen ürün güncellenir, yoksa eklenir
func ImportProductsHandler(maxRows int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası bulunamadı")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya açılamadı")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya okunamadı")
		}

		rows, err := importer.ReadWorkbook(fileHeader.Filename, data, maxRows)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		parsed, problems := ParseProductRows(rows)

		created, updated := 0, 0
		for _, pr := range parsed {
			isNew, err := upsertProductRow(database.DB, pr)
			if err != nil {
				var conflict *CodeConflictError
				if errors.As(err, &conflict) {
					problems = append(problems, fmt.Sprintf("satır %d: %s, %s atlandı", pr.Row, conflict.Error(), pr.Name))
				} else {
					problems = append(problems, fmt.Sprintf("satır %d: kaydedilemedi", pr.Row))
				}
				continue
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}

		writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityProduct,
			Action:      models.AuditActionImport,
			Description: fileHeader.Filename + " ürün listesi içe aktarıldı",
			After:       fiber.Map{"created": created, "updated": updated},
		})

		if problems == nil {
			problems = []string{}
		}
		return c.JSON(fiber.Map{
			"created": created,
			"updated": updated,
			"errors":  problems,
		})
	}
}
