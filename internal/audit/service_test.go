package audit

import (
	"strings"
	"testing"
	"time"

	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewLog(t *testing.T) {
	log := newLog(LogOptions{
		UserID:      3,
		UserName:    "Aziz",
		EntityType:  EntityProduct,
		EntityID:    9,
		Action:      models.AuditActionUpdate,
		Description: strings.Repeat("ü", 300),
		Before:      map[string]string{"name": "Muz"},
	})

	assert.Equal(t, uint(3), log.UserID)
	assert.Equal(t, EntityProduct, log.EntityType)
	assert.JSONEq(t, `{"name":"Muz"}`, string(log.BeforeData))
	assert.Nil(t, log.AfterData)
	assert.Len(t, []rune(log.Description), 255)
}

func TestImportDescription(t *testing.T) {
	job := &models.ImportJob{Filename: "reestr.xls"}
	s := &importer.Summary{Format: importer.SourceRegistry, Created: 4, Skipped: 1, Errors: []importer.Issue{{}}}
	assert.Equal(t, "reestr.xls içe aktarıldı (REGISTRY): 4 sipariş oluşturuldu, 1 atlandı, 1 hata", importDescription(job, s))
}

func TestToResponse(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	by := uint(1)
	resp := toResponse(models.AuditLog{ID: 1, CreatedAt: at, IsUndone: true, UndoneBy: &by, UndoneAt: &at, Action: models.AuditActionImport})
	assert.Equal(t, "2024-05-01 09:30:00", resp.CreatedAt)
	if assert.NotNil(t, resp.UndoneAt) {
		assert.Equal(t, "2024-05-01 09:30:00", *resp.UndoneAt)
	}
	assert.Empty(t, resp.AfterData)
}
