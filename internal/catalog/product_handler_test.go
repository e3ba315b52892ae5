package catalog

import (
	"testing"

	"lojistik-backend/internal/importer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductRows(t *testing.T) {
	rows := []importer.RawRow{
		importer.TextRow([]string{"SAP", "Наименование", "Ед. изм.", "Штрих-код"}),
		importer.TextRow([]string{" m 1", "Muz 1kg", "kg", "4600001"}),
		importer.TextRow([]string{"", "Kodsuz ürün", "adet", ""}),
		importer.TextRow([]string{"M3", "", "adet", ""}),
		nil,
		importer.TextRow([]string{"", "Elma", "", "4600002"}),
	}

	products, problems := ParseProductRows(rows)
	require.Len(t, products, 2)
	assert.Equal(t, ProductRow{Row: 2, Name: "Muz 1kg", Unit: "kg", SapCode: "M1", Barcode: "4600001"}, products[0])
	assert.Equal(t, "4600002", products[1].Barcode)
	assert.Equal(t, 6, products[1].Row)
	assert.Len(t, problems, 2)
}

func TestParseProductRows_MissingNameColumn(t *testing.T) {
	rows := []importer.RawRow{
		importer.TextRow([]string{"SAP", "Barkod"}),
		importer.TextRow([]string{"M1", "1"}),
	}
	products, problems := ParseProductRows(rows)
	assert.Empty(t, products)
	assert.Len(t, problems, 1)

	_, problems = ParseProductRows(rows[:1])
	assert.Len(t, problems, 1)
}
