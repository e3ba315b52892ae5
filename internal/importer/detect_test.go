package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(values ...string) RawRow {
	return TextRow(values)
}

func wideRow(prefix []string, width int, fill func(i int) string) RawRow {
	values := append([]string{}, prefix...)
	for i := len(values); i < width; i++ {
		values = append(values, fill(i))
	}
	return TextRow(values)
}

func TestDetectFormat_Detailed(t *testing.T) {
	for _, marker := range []string{"Заказ №", "Order №", "buyurtma №", "ЗАКАЗ N", "Sipariş No"} {
		rows := []RawRow{
			rowOf(marker, "Клиент", "Код товара", "Количество"),
			rowOf("1001", "Korzinka", "M1", "5"),
		}
		got, err := DetectFormat(rows)
		require.NoError(t, err, marker)
		assert.Equal(t, SourceDetailed, got, marker)
	}
}

func TestDetectFormat_Registry(t *testing.T) {
	header := wideRow([]string{"", "", ""}, 12, func(i int) string { return "K00" + string(rune('0'+i%10)) })
	rows := []RawRow{header, rowOf("", "", "", "Korzinka-A", "Korzinka-B")}

	got, err := DetectFormat(rows)
	require.NoError(t, err)
	assert.Equal(t, SourceRegistry, got)
}

func TestDetectFormat_DefaultsToDetailed(t *testing.T) {
	// 10'dan az kolon: REGISTRY sayılmaz
	rows := []RawRow{
		rowOf("", "", "", "K001", "K002"),
		rowOf("", "", "", "Korzinka-A", "Korzinka-B"),
	}
	got, err := DetectFormat(rows)
	require.NoError(t, err)
	assert.Equal(t, SourceDetailed, got)

	// Geniş ama 4. kolon boş
	header := wideRow([]string{"", "", "", "K001", ""}, 12, func(int) string { return "X" })
	got, err = DetectFormat([]RawRow{header, rowOf("a", "b", "c", "d")})
	require.NoError(t, err)
	assert.Equal(t, SourceDetailed, got)
}

func TestDetectFormat_Ambiguous(t *testing.T) {
	cases := map[string][]RawRow{
		"tek satır":  {rowOf("Заказ №", "a", "b", "c")},
		"dar kolon":  {rowOf("a", "b"), rowOf("c", "d", "e")},
		"boş dosya":  nil,
	}
	for name, rows := range cases {
		_, err := DetectFormat(rows)
		var fe *FormatError
		assert.True(t, errors.As(err, &fe), name)
	}
}
