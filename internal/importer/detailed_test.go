package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var detailedHeader = rowOf("Заказ №", "Клиент", "Код филиала", "Филиал", "Код товара", "Наименование", "Количество")

func TestExtractDetailed_GroupsByOrderNumber(t *testing.T) {
	rows := []RawRow{
		detailedHeader,
		rowOf("1001", "Korzinka", "K001", "Korzinka-A", "M1", "Muz 1kg", "5"),
		rowOf("", "", "", "", "M2", "Muz 2kg", "2,5"),
		rowOf(),
		rowOf("1002", "Makro", "", "", "", "", ""),
		rowOf("", "", "", "", "M1", "Muz 1kg", "3"),
		rowOf("1003", "Makro", "", "", "M3", "Muz 5kg", "1"),
	}

	orders, warnings := ExtractDetailed(rows)
	assert.Empty(t, warnings)
	require.Len(t, orders, 3)

	assert.Equal(t, "1001", orders[0].OrderNumber)
	assert.Equal(t, "Korzinka", orders[0].CustomerName)
	assert.Equal(t, "K001", orders[0].BranchCode)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "M2", orders[0].Items[1].MaterialCode)
	assert.Equal(t, "2.5", orders[0].Items[1].Quantity.String())
	assert.Equal(t, "K001", orders[0].Items[1].BranchCode)
	assert.Equal(t, 3, orders[0].Items[1].Row)

	assert.Equal(t, "1002", orders[1].OrderNumber)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "", orders[1].BranchCode)

	assert.Equal(t, "1003", orders[2].OrderNumber)
	for _, o := range orders {
		assert.Equal(t, SourceDetailed, o.Source)
	}
}

func TestExtractDetailed_CountMatchesDistinctOrderNumbers(t *testing.T) {
	rows := []RawRow{
		detailedHeader,
		rowOf("A-1", "Korzinka", "", "", "M1", "", "1"),
		rowOf("A-1", "Korzinka", "", "", "M2", "", "1"),
		rowOf("A-2", "Korzinka", "", "", "M1", "", "1"),
		// Aynı numara tekrar gelirse aynı siparişe eklenir
		rowOf("A-1", "Korzinka", "", "", "M3", "", "1"),
		rowOf("№ A-3", "Korzinka", "", "", "M1", "", "4"),
	}

	orders, warnings := ExtractDetailed(rows)
	assert.Empty(t, warnings)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, []string{orders[0].OrderNumber, orders[1].OrderNumber, orders[2].OrderNumber})
	assert.Len(t, orders[0].Items, 3)
}

func TestExtractDetailed_DropsEmptyOrdersAndBadRows(t *testing.T) {
	rows := []RawRow{
		detailedHeader,
		rowOf("", "", "", "", "M9", "", "2"), // sipariş yokken ürün
		rowOf("1001", "Korzinka", "", "", "M1", "", "5"),
		rowOf("", "", "", "", "M2", "", "0"),   // sıfır: sessizce düşer
		rowOf("", "", "", "", "M3", "", "çok"), // geçersiz: uyarı
		rowOf("1002", "Korzinka", "", "", "", "", ""),
	}

	orders, warnings := ExtractDetailed(rows)
	require.Len(t, orders, 1)
	assert.Equal(t, "1001", orders[0].OrderNumber)
	assert.Len(t, orders[0].Items, 1)

	require.Len(t, warnings, 3)
	var rowErr *RowParseError
	require.True(t, errors.As(warnings[0], &rowErr))
	assert.Equal(t, 2, rowErr.Row)
	require.True(t, errors.As(warnings[1], &rowErr))
	assert.Equal(t, 5, rowErr.Row)
	assert.Equal(t, "1001", rowErr.OrderNumber)
	require.True(t, errors.As(warnings[2], &rowErr))
	assert.Equal(t, "1002", rowErr.OrderNumber)
}

func TestExtractDetailed_DefaultColumnsWithoutHeaderAliases(t *testing.T) {
	rows := []RawRow{
		rowOf("a", "b", "c", "d", "e", "f", "g"),
		rowOf("77", "Makro", "B1", "Makro-1", "M1", "Muz", "9"),
	}
	orders, _ := ExtractDetailed(rows)
	require.Len(t, orders, 1)
	assert.Equal(t, "77", orders[0].OrderNumber)
	assert.Equal(t, "B1", orders[0].BranchCode)
	assert.Equal(t, "9", orders[0].Items[0].Quantity.String())
}

func TestExtractDetailed_HeaderAliasesReorderColumns(t *testing.T) {
	rows := []RawRow{
		rowOf("Product code", "Qty", "Order number", "Customer"),
		rowOf("M1", "4", "5001", "Makro"),
		rowOf("M2", "1", "", ""),
	}
	orders, warnings := ExtractDetailed(rows)
	assert.Empty(t, warnings)
	require.Len(t, orders, 1)
	assert.Equal(t, "5001", orders[0].OrderNumber)
	assert.Equal(t, "Makro", orders[0].CustomerName)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "M2", orders[0].Items[1].MaterialCode)
}
