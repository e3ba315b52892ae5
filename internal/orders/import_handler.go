package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lojistik-backend/internal/auth"
	"lojistik-backend/internal/config"
	"lojistik-backend/internal/importer"

	"github.com/gofiber/fiber/v2"
)

// Importer: sipariş dosyası içe aktarım hattı
type Importer interface {
	Import(ctx context.Context, req importer.ImportRequest) (*importer.Summary, error)
}

var supportedExtensions = []string{".xlsx", ".xls", ".xml"}

func hasSupportedExtension(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// POST /api/orders/import (multipart: file, customer_id opsiyonel)
func ImportOrdersHandler(imp Importer, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: 'file' alanı eksik")
		}
		if !hasSupportedExtension(fileHeader.Filename) {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx, .xls ve .xml dosyaları yüklenebilir")
		}
		if cfg.ImportMaxFileBytes > 0 && fileHeader.Size > cfg.ImportMaxFileBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge,
				fmt.Sprintf("Dosya en fazla %d MB olabilir", cfg.ImportMaxFileBytes/(1024*1024)))
		}

		var customerID uint
		if v := strings.TrimSpace(c.FormValue("customer_id")); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz customer_id")
			}
			customerID = uint(id)
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya okunamadı")
		}

		userID, _ := auth.CurrentUser(c)
		summary, err := imp.Import(c.UserContext(), importer.ImportRequest{
			Filename:          fileHeader.Filename,
			Data:              data,
			DefaultCustomerID: customerID,
			UserID:            userID,
		})
		if err != nil {
			var fe *importer.FormatError
			switch {
			case errors.As(err, &fe):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   "Dosya formatı tanınamadı",
					"details": fe.Error(),
				})
			case errors.Is(err, importer.ErrUnknownCustomer):
				return fiber.NewError(fiber.StatusBadRequest, "Seçilen müşteri bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "İçe aktarım başarısız")
		}

		return c.JSON(summary)
	}
}
