package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateOrder: aynı sipariş numarası başka bir işlemde kaydedildi
	ErrDuplicateOrder = errors.New("sipariş numarası zaten kayıtlı")
	// ErrUnknownCustomer: yüklemede verilen varsayılan müşteri yok
	ErrUnknownCustomer = errors.New("müşteri bulunamadı")
)

// FormatError: dosya okunamadı veya formatı tanınamadı. Tüm içe aktarımı durdurur.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dosya formatı hatalı: %s: %v", e.Reason, e.Err)
	}
	return "dosya formatı hatalı: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// RowParseError: tek bir satır/sipariş hatalı, içe aktarım devam eder
type RowParseError struct {
	Row         int
	OrderNumber string
	Reason      string
}

func (e *RowParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("satır %d: %s", e.Row, e.Reason)
	}
	return e.Reason
}

// ResolutionError: ürün/müşteri/şube katalogda çözülemedi. Kalem düşer, sipariş devam eder.
type ResolutionError struct {
	Row         int
	OrderNumber string
	Code        string
	Reason      string
}

func (e *ResolutionError) Error() string {
	msg := e.Reason
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	if e.Row > 0 {
		return fmt.Sprintf("satır %d: %s", e.Row, msg)
	}
	return msg
}

// PersistenceError: siparişin kaydı başarısız oldu, sonraki siparişle devam edilir
type PersistenceError struct {
	OrderNumber string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sipariş %s kaydedilemedi: %v", e.OrderNumber, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type IssueKind string

const (
	IssueRow         IssueKind = "row"
	IssueResolution  IssueKind = "resolution"
	IssuePersistence IssueKind = "persistence"
)

// Issue: özet yanıtındaki hata satırı
type Issue struct {
	OrderNumber string    `json:"order_number"`
	Message     string    `json:"message"`
	Row         int       `json:"row,omitempty"`
	Kind        IssueKind `json:"kind"`
}

func issueFromError(err error) Issue {
	var (
		rowErr     *RowParseError
		resolveErr *ResolutionError
		persistErr *PersistenceError
	)
	switch {
	case errors.As(err, &rowErr):
		return Issue{OrderNumber: rowErr.OrderNumber, Message: rowErr.Error(), Row: rowErr.Row, Kind: IssueRow}
	case errors.As(err, &resolveErr):
		return Issue{OrderNumber: resolveErr.OrderNumber, Message: resolveErr.Error(), Row: resolveErr.Row, Kind: IssueResolution}
	case errors.As(err, &persistErr):
		return Issue{OrderNumber: persistErr.OrderNumber, Message: persistErr.Error(), Kind: IssuePersistence}
	}
	return Issue{Message: err.Error(), Kind: IssuePersistence}
}
