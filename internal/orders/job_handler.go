package orders

import (
	"encoding/json"

	"lojistik-backend/internal/database"
	"lojistik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ImportJobResponse struct {
	ID            uint                `json:"id"`
	BatchID       string              `json:"batch_id"`
	Filename      string              `json:"filename"`
	Source        models.OrderSource  `json:"source"`
	Status        models.ImportStatus `json:"status"`
	UserID        *uint               `json:"user_id"`
	Created       int                 `json:"created"`
	Skipped       int                 `json:"skipped"`
	ErrorCount    int                 `json:"error_count"`
	FailureReason string              `json:"failure_reason,omitempty"`
	CreatedAt     string              `json:"created_at"`
	FinishedAt    *string             `json:"finished_at"`
	Summary       json.RawMessage     `json:"summary,omitempty"`
}

func toJobResponse(j models.ImportJob, withSummary bool) ImportJobResponse {
	resp := ImportJobResponse{
		ID:            j.ID,
		BatchID:       j.BatchID,
		Filename:      j.Filename,
		Source:        j.Source,
		Status:        j.Status,
		UserID:        j.UserID,
		Created:       j.Created,
		Skipped:       j.Skipped,
		ErrorCount:    j.ErrorCount,
		FailureReason: j.FailureReason,
		CreatedAt:     j.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if j.FinishedAt != nil {
		f := j.FinishedAt.Format("2006-01-02 15:04:05")
		resp.FinishedAt = &f
	}
	if withSummary && len(j.Summary) > 0 {
		resp.Summary = json.RawMessage(j.Summary)
	}
	return resp
}

// GET /api/import-jobs?status=failed
func ListImportJobsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ImportJob{})
		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("status = ?", v)
		}

		limit, offset := pagination(c)
		var jobs []models.ImportJob
		if err := dbq.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İçe aktarımlar listelenemedi")
		}

		res := make([]ImportJobResponse, 0, len(jobs))
		for _, j := range jobs {
			res = append(res, toJobResponse(j, false))
		}
		return c.JSON(res)
	}
}

// GET /api/import-jobs/:id
func GetImportJobHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var job models.ImportJob
		if err := database.DB.First(&job, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İçe aktarım bulunamadı")
		}
		return c.JSON(toJobResponse(job, true))
	}
}
