package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

type container int

const (
	containerUnknown container = iota
	containerXLSX
	containerXLS
	containerSpreadsheetML
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// sniffContainer: önce dosyanın ilk baytlarına, sonra uzantıya bakar
func sniffContainer(filename string, data []byte) container {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return containerXLSX
	case bytes.HasPrefix(data, oleMagic):
		return containerXLS
	}

	head := data[:min(len(data), 512)]
	head = bytes.TrimSpace(bytes.TrimPrefix(head, utf8BOM))
	if bytes.HasPrefix(head, []byte("<?xml")) || bytes.HasPrefix(head, []byte("<Workbook")) {
		return containerSpreadsheetML
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return containerSpreadsheetML
	}
	return containerUnknown
}

// ReadWorkbook: yüklenen dosyanın ilk sayfasını ham satırlar olarak okur.
// .xlsx, eski .xls ve XML Spreadsheet 2003 desteklenir.
func ReadWorkbook(filename string, data []byte, maxRows int) ([]RawRow, error) {
	if len(data) == 0 {
		return nil, &FormatError{Reason: "dosya boş"}
	}

	var (
		rows []RawRow
		err  error
	)
	switch sniffContainer(filename, data) {
	case containerXLSX:
		rows, err = readXLSX(data)
	case containerXLS:
		rows, err = readXLS(data)
	case containerSpreadsheetML:
		rows, err = readSpreadsheetML(data)
	default:
		return nil, &FormatError{Reason: fmt.Sprintf("desteklenmeyen dosya türü (%s)", filename)}
	}
	if err != nil {
		return nil, &FormatError{Reason: "dosya okunamadı", Err: err}
	}

	rows = trimRows(rows)
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "dosyada veri yok"}
	}
	if maxRows > 0 && len(rows) > maxRows {
		return nil, &FormatError{Reason: fmt.Sprintf("dosyada %d satır var, en fazla %d satır yüklenebilir", len(rows), maxRows)}
	}
	return rows, nil
}

func readXLSX(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel dosyasında sheet bulunamadı")
	}

	// Ham değerler: "5" yerine hücre formatına göre "5,00" gelmesin
	values, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet okunamadı: %w", err)
	}

	rows := make([]RawRow, len(values))
	for i, v := range values {
		rows[i] = TextRow(v)
	}
	return rows, nil
}

// readXLS: xlsReader sadece dosya yolundan okuyabildiği için geçici dosya kullanılır
func readXLS(data []byte) ([]RawRow, error) {
	tmp, err := os.CreateTemp("", "order-import-*.xls")
	if err != nil {
		return nil, fmt.Errorf("geçici dosya oluşturulamadı: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("geçici dosyaya yazılamadı: %w", err)
	}
	tmp.Close()

	workbook, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, err
	}
	if workbook.GetNumberSheets() == 0 {
		return nil, fmt.Errorf("xls dosyasında sheet bulunamadı")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("sheet okunamadı: %v", err)
	}

	var rows []RawRow
	for i := 0; i <= int(sheet.GetNumberRows()); i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			// Satır numaraları kaymasın diye boş satır eklenir
			rows = append(rows, nil)
			continue
		}
		var cells RawRow
		for _, col := range row.GetCols() {
			if col == nil {
				cells = append(cells, NullCell)
				continue
			}
			cells = append(cells, TextCell(col.GetString()))
		}
		rows = append(rows, trimRow(cells))
	}
	return rows, nil
}
