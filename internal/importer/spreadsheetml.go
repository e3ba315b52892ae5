package importer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// XML Spreadsheet 2003 (urn:schemas-microsoft-com:office:spreadsheet).
// ss:Index 1'den başlar ve atlanan hücre/satırları belirtir.
type ssWorkbook struct {
	Worksheets []ssWorksheet `xml:"Worksheet"`
}

type ssWorksheet struct {
	Name string  `xml:"Name,attr"`
	Rows []ssRow `xml:"Table>Row"`
}

type ssRow struct {
	Index int      `xml:"Index,attr"`
	Cells []ssCell `xml:"Cell"`
}

type ssCell struct {
	Index       int     `xml:"Index,attr"`
	MergeAcross int     `xml:"MergeAcross,attr"`
	Data        *ssData `xml:"Data"`
}

type ssData struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

func readSpreadsheetML(data []byte) ([]RawRow, error) {
	var wb ssWorkbook
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&wb); err != nil {
		return nil, fmt.Errorf("xml çözümlenemedi: %w", err)
	}
	if len(wb.Worksheets) == 0 {
		return nil, fmt.Errorf("xml dosyasında Worksheet bulunamadı")
	}

	var rows []RawRow
	for _, r := range wb.Worksheets[0].Rows {
		for r.Index > 0 && len(rows) < r.Index-1 {
			rows = append(rows, nil)
		}

		var row RawRow
		col := 0
		for _, c := range r.Cells {
			if c.Index > 0 {
				col = c.Index - 1
			}
			for len(row) < col {
				row = append(row, NullCell)
			}
			row = append(row, ssCellValue(c.Data))
			col += 1 + c.MergeAcross
		}
		rows = append(rows, trimRow(row))
	}
	return rows, nil
}

// charsetReader: eski Excel sürümleri windows-1251 / windows-1254 gibi kod sayfalarıyla kaydeder
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("desteklenmeyen karakter kodlaması %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func ssCellValue(d *ssData) Cell {
	if d == nil {
		return NullCell
	}
	if strings.EqualFold(d.Type, "Number") {
		if f, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64); err == nil {
			return NumberCell(f)
		}
	}
	return TextCell(d.Value)
}
