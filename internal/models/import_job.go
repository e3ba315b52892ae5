package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusParsing    ImportStatus = "parsing"
	ImportStatusResolving  ImportStatus = "resolving"
	ImportStatusPersisting ImportStatus = "persisting"
	ImportStatusDone       ImportStatus = "done"
	ImportStatusFailed     ImportStatus = "failed"
)

// ValidImportTransitions: PENDING → PARSING → RESOLVING → PERSISTING → DONE.
// FAILED sadece dosya okunamadığında veya formatı tanınamadığında.
var ValidImportTransitions = map[ImportStatus][]ImportStatus{
	ImportStatusPending:    {ImportStatusParsing, ImportStatusFailed},
	ImportStatusParsing:    {ImportStatusResolving, ImportStatusFailed},
	ImportStatusResolving:  {ImportStatusPersisting},
	ImportStatusPersisting: {ImportStatusDone},
	ImportStatusDone:       {},
	ImportStatusFailed:     {},
}

func CanTransitionImportStatus(from, to ImportStatus) bool {
	for _, next := range ValidImportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ImportJob: tek bir dosya yüklemesinin durumu ve özeti
type ImportJob struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	BatchID       string         `gorm:"size:36;not null;uniqueIndex" json:"batch_id"`
	Filename      string         `gorm:"size:255" json:"filename"`
	Source        OrderSource    `gorm:"size:20" json:"source"`
	Status        ImportStatus   `gorm:"size:20;not null;index" json:"status"`
	UserID        *uint          `json:"user_id"`
	Created       int            `json:"created"`
	Skipped       int            `json:"skipped"`
	ErrorCount    int            `json:"error_count"`
	Summary       datatypes.JSON `gorm:"type:jsonb" json:"summary,omitempty"`
	FailureReason string         `gorm:"size:500" json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	FinishedAt    *time.Time     `json:"finished_at"`
}
