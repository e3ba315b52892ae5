package importer

import "regexp"

// Sipariş başlığı işareti: "Заказ №", "Order №", "Buyurtma №", "Sipariş No" ...
var orderMarkerRe = regexp.MustCompile(`(?i)(заказ|order|buyurtma|sipariş)\s*(№|#|no\.|no\s|no$|n\s|n$)`)

const (
	minDetectRows    = 2
	minDetectColumns = 4
	// REGISTRY başlığı: 10'dan fazla kolon ve 3-4. kolonlarda şube kodları
	registryMinColumns = 10
)

// DetectFormat: ilk iki satıra bakarak dosya düzenini belirler
func DetectFormat(rows []RawRow) (SourceType, error) {
	if len(rows) < minDetectRows {
		return "", &FormatError{Reason: "dosyada en az 2 satır olmalı"}
	}
	if len(rows[0]) < minDetectColumns && len(rows[1]) < minDetectColumns {
		return "", &FormatError{Reason: "dosyada en az 4 kolon olmalı"}
	}

	if orderMarkerRe.MatchString(rows[0].Text(0)) {
		return SourceDetailed, nil
	}

	header := rows[0]
	if len(header) > registryMinColumns && !header.At(3).IsEmpty() && !header.At(4).IsEmpty() {
		return SourceRegistry, nil
	}

	return SourceDetailed, nil
}
