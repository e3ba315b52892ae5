package importer

import (
	"strconv"
	"strings"
)

type CellKind uint8

const (
	CellNull CellKind = iota
	CellText
	CellNumber
)

// Cell: tablodan okunan ham hücre değeri (metin, sayı veya boş)
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

var NullCell = Cell{}

// TextCell: boşlukları kırpar, boş metin Null olur
func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullCell
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellNull
}

func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return ""
}

// RawRow: sıralı hücreler. Anlamı format tespit edilene kadar yoktur.
type RawRow []Cell

// At: kolon yoksa Null döner (negatif indeks dahil)
func (r RawRow) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return NullCell
	}
	return r[i]
}

func (r RawRow) Text(i int) string {
	return r.At(i).String()
}

func (r RawRow) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// trimRow: sondaki boş hücreleri atar
func trimRow(r RawRow) RawRow {
	end := len(r)
	for end > 0 && r[end-1].IsEmpty() {
		end--
	}
	return r[:end]
}

// trimRows: her satırı kırpar ve sondaki boş satırları atar
func trimRows(rows []RawRow) []RawRow {
	for i := range rows {
		rows[i] = trimRow(rows[i])
	}
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}

// TextRow: []string satırını RawRow'a çevirir
func TextRow(values []string) RawRow {
	row := make(RawRow, len(values))
	for i, v := range values {
		row[i] = TextCell(v)
	}
	return trimRow(row)
}
