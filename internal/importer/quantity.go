package importer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem.Quantity numeric(14,3) kolonunda saklanır
const QuantityScale = 3

var (
	// "12", "12.5", "12,5", "1 200", "12 шт", "5кг." kabul edilir
	quantityTextRe = regexp.MustCompile(`^\+?(\d+(?:[.,]\d+)?)\p{L}*\.?$`)
	// "1,200": binlik ayırıcı mı ondalık virgül mü belli değil, miktar olarak kabul edilmez
	ambiguousCommaRe = regexp.MustCompile(`^[1-9]\d{0,2},\d{3}$`)
)

// ParseQuantity: hücreyi pozitif miktara çevirir ve QuantityScale haneye yuvarlar. Boş, sıfır,
// negatif, sayı olmayan ya da yuvarlanınca sıfır kalan değerler false döner.
func ParseQuantity(c Cell) (decimal.Decimal, bool) {
	d, ok := quantityValue(c)
	if !ok {
		return decimal.Zero, false
	}
	d = d.Round(QuantityScale)
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// quantityValue: sayıya çevrilebiliyorsa işaretine bakmadan döner
func quantityValue(c Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case CellNumber:
		return decimal.NewFromFloat(c.Number), true
	case CellText:
		return parseQuantityText(c.Text)
	}
	return decimal.Zero, false
}

func parseQuantityText(s string) (decimal.Decimal, bool) {
	// Binlik ayırıcı olarak kullanılan boşlukları (NBSP dahil) kaldır
	s = strings.Join(strings.Fields(s), "")
	if strings.HasPrefix(s, "-") {
		d, ok := parseQuantityText(s[1:])
		return d.Neg(), ok
	}
	m := quantityTextRe.FindStringSubmatch(s)
	if m == nil || ambiguousCommaRe.MatchString(m[1]) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// badQuantity: hücre dolu ama kullanılamaz mı? Sıfır sessizce atlanır, uyarı üretmez;
// sıfır olmayıp yuvarlanınca sıfır kalan değer ise uyarı üretir.
func badQuantity(c Cell) bool {
	if c.IsEmpty() {
		return false
	}
	d, ok := quantityValue(c)
	if !ok || d.IsNegative() {
		return true
	}
	return !d.IsZero() && !d.Round(QuantityScale).IsPositive()
}
