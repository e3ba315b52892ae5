package importer

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	registryBranchCodeRow  = 0
	registryBranchNameRow  = 1
	registryOrderNumberRow = 2
	registryFirstItemRow   = 3

	registryMaterialCol    = 1
	registryDescriptionCol = 2
	registryFirstBranchCol = 3

	// Sıra numarası kolonu en fazla 4 haneli kabul edilir, daha uzun sayılar malzeme kodudur
	maxRowIndexDigits = 4
)

// registryColumn: tek bir şube kolonu. Her kolon tek bir siparişe karşılık gelir.
type registryColumn struct {
	index       int
	branchCode  string
	branchName  string
	orderNumber string
	flagged     bool
	flagReason  string
}

// registryColumns: ilk üç satırdan kolon → {şube, sipariş} haritasını bir kez çıkarır
func registryColumns(codes, names, numbers RawRow) ([]registryColumn, []error) {
	var (
		columns  []registryColumn
		warnings []error
	)
	seen := make(map[string]string) // sipariş no → ilk kullanan şube kodu

	for i := registryFirstBranchCol; i < len(codes); i++ {
		code := codes.Text(i)
		if code == "" {
			continue
		}
		col := registryColumn{
			index:       i,
			branchCode:  code,
			branchName:  names.Text(i),
			orderNumber: normalizeOrderNumber(numbers.Text(i)),
		}

		switch owner, dup := seen[col.orderNumber]; {
		case col.orderNumber == "":
			col.flagged = true
			col.flagReason = fmt.Sprintf("%s şubesi için sipariş numarası yok", code)
		case dup:
			col.flagged = true
			col.flagReason = fmt.Sprintf("%s şubesinin sipariş numarası %s, %s şubesinde de kullanılmış", code, col.orderNumber, owner)
		default:
			seen[col.orderNumber] = code
		}

		if col.flagged {
			name, _ := excelize.ColumnNumberToName(i + 1)
			col.orderNumber = fmt.Sprintf("NO-ORDER-%s@%s", code, name)
			warnings = append(warnings, &RowParseError{
				Row:         registryOrderNumberRow + 1,
				OrderNumber: col.orderNumber,
				Reason:      col.flagReason + ", kolon " + name + " aktarılmayacak",
			})
		}
		columns = append(columns, col)
	}
	return columns, warnings
}

// registryHasIndexColumn: sıra numarası kolonu olup olmadığına tüm ürün satırlarına bakarak bir kez
// karar verir. 0. kolonda sıra numarasına benzemeyen tek bir değer varsa kolon yoktur. Hepsi sıra
// numarasına benziyorsa (sayısal malzeme kodları) 2. kolona bakılır: indeksli düzende orada açıklama
// metni, indekssiz düzende ilk şubenin miktarı bulunur. 2. kolon hep boşsa satır genişliği karar
// verir: dolu son hücre son şube kolonuna ulaşıyorsa indeksli, bir eksiğinde kalıyorsa indekssizdir.
// certain=false: hiçbir işaret kesin değil, 1. kolondaki metne göre tahmin edildi.
func registryHasIndexColumn(rows []RawRow, lastBranchCol int) (indexed, certain bool) {
	textDesc, numericDesc, textCol1 := false, false, false
	width := -1
	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		if first := row.At(0); !first.IsEmpty() && !isRowIndex(first) {
			return false, true
		}
		switch c := row.At(registryDescriptionCol); {
		case c.IsEmpty():
		case isQuantityLike(c):
			numericDesc = true
		default:
			textDesc = true
		}
		if c := row.At(registryMaterialCol); !c.IsEmpty() && !isQuantityLike(c) {
			textCol1 = true
		}
		if last := lastFilledCol(row); last > width {
			width = last
		}
	}

	switch {
	case textDesc:
		return true, true
	case numericDesc:
		return false, true
	case width < 0:
		return true, true
	case width >= lastBranchCol:
		return true, true
	case width == lastBranchCol-1:
		return false, true
	}
	// İndekssiz düzende 1. kolon açıklama metnidir
	return !textCol1, false
}

func lastFilledCol(row RawRow) int {
	for i := len(row) - 1; i >= 0; i-- {
		if !row[i].IsEmpty() {
			return i
		}
	}
	return -1
}

func isQuantityLike(c Cell) bool {
	_, ok := quantityValue(c)
	return ok
}

// shiftRegistryRow: indekssiz düzende satırı bir kolon sağa kaydırır
func shiftRegistryRow(row RawRow) RawRow {
	return append(RawRow{NullCell}, row...)
}

func isRowIndex(c Cell) bool {
	s := c.String()
	if len(s) == 0 || len(s) > maxRowIndexDigits {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

// ExtractRegistry: şube × ürün matrisini okur. Her pozitif miktar hücresi, o kolonun
// siparişine bir kalem ekler. Hatalı kolonlar işaretlenir, batch başarısız olmaz.
func ExtractRegistry(rows []RawRow, batchID string) (Batch, []error, error) {
	batch := Batch{BatchID: batchID}
	if len(rows) < registryFirstItemRow {
		return batch, nil, &FormatError{Reason: "REGISTRY dosyasında şube, isim ve sipariş numarası satırları eksik"}
	}

	columns, warnings := registryColumns(rows[registryBranchCodeRow], rows[registryBranchNameRow], rows[registryOrderNumberRow])
	if len(columns) == 0 {
		return batch, warnings, &FormatError{Reason: "REGISTRY başlığında şube kodu bulunamadı"}
	}

	indexed, certain := registryHasIndexColumn(rows[registryFirstItemRow:], columns[len(columns)-1].index)
	if !certain {
		layout := "sıra numarası kolonu var"
		if !indexed {
			layout = "sıra numarası kolonu yok"
		}
		warnings = append(warnings, &RowParseError{
			Row:    registryFirstItemRow + 1,
			Reason: fmt.Sprintf("ürün satırlarının düzeni belirsiz, %s kabul edildi; miktarların şube kolonlarını kontrol edin", layout),
		})
	}

	orders := make(map[int]*ParsedOrder, len(columns))
	for r := registryFirstItemRow; r < len(rows); r++ {
		if rows[r].IsBlank() {
			continue
		}
		row := rows[r]
		if !indexed {
			row = shiftRegistryRow(row)
		}
		rowNum := r + 1
		code := row.Text(registryMaterialCol)
		desc := row.Text(registryDescriptionCol)

		for _, col := range columns {
			cell := row.At(col.index)
			qty, ok := ParseQuantity(cell)
			if !ok {
				if badQuantity(cell) {
					warnings = append(warnings, &RowParseError{
						Row:         rowNum,
						OrderNumber: col.orderNumber,
						Reason:      fmt.Sprintf("%s / %s için geçersiz miktar %q, kalem atlandı", code, col.branchCode, cell.String()),
					})
				}
				continue
			}
			if code == "" {
				warnings = append(warnings, &RowParseError{
					Row:         rowNum,
					OrderNumber: col.orderNumber,
					Reason:      fmt.Sprintf("%s şubesine miktar girilmiş ama malzeme kodu yok, kalem atlandı", col.branchCode),
				})
				continue
			}

			order, ok := orders[col.index]
			if !ok {
				order = &ParsedOrder{
					OrderNumber: col.orderNumber,
					BranchCode:  col.branchCode,
					BranchName:  col.branchName,
					Source:      SourceRegistry,
					Row:         rowNum,
					Flagged:     col.flagged,
					FlagReason:  col.flagReason,
				}
				orders[col.index] = order
			}
			order.Items = append(order.Items, ParsedOrderItem{
				MaterialCode:       code,
				ProductDescription: desc,
				Quantity:           qty,
				BranchCode:         col.branchCode,
				BranchName:         col.branchName,
				Row:                rowNum,
			})
		}
	}

	indexes := make([]int, 0, len(orders))
	for i := range orders {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		batch.Orders = append(batch.Orders, *orders[i])
	}
	return batch, warnings, nil
}
