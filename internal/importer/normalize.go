package importer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCode: ürün/şube kodlarını karşılaştırma için tek biçime getirir.
// "  k 001 " ve "K001" aynı kod sayılır.
func NormalizeCode(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), "")
	return strings.ToUpper(s)
}

// NormalizeName: büyük/küçük harf ve boşluk farklarını yok sayar
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// normalizeOrderNumber: baştaki "№" / "#" işaretlerini ve boşlukları temizler
func normalizeOrderNumber(s string) string {
	// NFKC "№" işaretini "No" yapar, önce işaret kırpılır
	s = strings.TrimLeft(strings.TrimSpace(s), "№#")
	return strings.TrimSpace(norm.NFKC.String(s))
}
