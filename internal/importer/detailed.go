package importer

import (
	"fmt"
	"strings"
)

type detailedColumns struct {
	order       int
	customer    int
	branchCode  int
	branchName  int
	material    int
	description int
	quantity    int
}

// Başlık bulunamazsa kullanılan sabit düzen
var defaultDetailedColumns = detailedColumns{
	order:       0,
	customer:    1,
	branchCode:  2,
	branchName:  3,
	material:    4,
	description: 5,
	quantity:    6,
}

type headerAlias struct {
	field   string
	aliases []string
}

// Sıra önemli: "код товара" hem malzeme hem ürün adı ile eşleşir, önce malzeme denenir
var detailedHeaderAliases = []headerAlias{
	{"order", []string{"номер заказа", "order number", "buyurtma raqami", "sipariş numarası"}},
	{"branch_code", []string{"код филиала", "код магазина", "branch code", "filial kodi", "şube kodu"}},
	{"material", []string{"код товара", "код материала", "материал", "product code", "item code", "артикул", "sap", "material", "mahsulot kodi", "stok kodu"}},
	{"quantity", []string{"количество", "кол-во", "qty", "quantity", "miqdor", "miktar"}},
	{"customer", []string{"клиент", "контрагент", "покупатель", "customer", "mijoz", "müşteri"}},
	{"branch_name", []string{"филиал", "магазин", "branch", "filial", "şube"}},
	{"description", []string{"наименование", "товар", "product", "description", "mahsulot", "ürün"}},
}

// detectDetailedColumns: başlık satırından kolonları çıkarır. Sipariş, malzeme ve miktar
// kolonlarının üçü de bulunamazsa sabit düzen kullanılır.
func detectDetailedColumns(header RawRow) detailedColumns {
	found := map[string]int{}
	for i, cell := range header {
		text := NormalizeName(cell.String())
		if text == "" {
			continue
		}
		if _, ok := found["order"]; !ok && orderMarkerRe.MatchString(cell.String()) {
			found["order"] = i
			continue
		}
		for _, h := range detailedHeaderAliases {
			if _, taken := found[h.field]; taken {
				continue
			}
			if containsAny(text, h.aliases) {
				found[h.field] = i
				break
			}
		}
	}

	_, hasOrder := found["order"]
	_, hasMaterial := found["material"]
	_, hasQuantity := found["quantity"]
	if !hasOrder || !hasMaterial || !hasQuantity {
		return defaultDetailedColumns
	}

	col := func(field string) int {
		if i, ok := found[field]; ok {
			return i
		}
		return -1
	}
	return detailedColumns{
		order:       col("order"),
		customer:    col("customer"),
		branchCode:  col("branch_code"),
		branchName:  col("branch_name"),
		material:    col("material"),
		description: col("description"),
		quantity:    col("quantity"),
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, NormalizeName(sub)) {
			return true
		}
	}
	return false
}

// ExtractDetailed: başlıktan sonraki satırları sırayla okur ve sipariş numarası
// değiştikçe yeni sipariş açar. Kalemsiz kalan siparişler uyarı ile düşürülür.
func ExtractDetailed(rows []RawRow) ([]ParsedOrder, []error) {
	if len(rows) == 0 {
		return nil, nil
	}

	cols := detectDetailedColumns(rows[0])
	var (
		warnings []error
		ordered  []*ParsedOrder
		current  *ParsedOrder
	)
	byNumber := make(map[string]*ParsedOrder)

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		number := normalizeOrderNumber(row.Text(cols.order))
		code := strings.TrimSpace(row.Text(cols.material))
		if number == "" && code == "" {
			continue
		}

		if number != "" {
			order, ok := byNumber[number]
			if !ok {
				order = &ParsedOrder{
					OrderNumber: number,
					Source:      SourceDetailed,
					Row:         rowNum,
				}
				byNumber[number] = order
				ordered = append(ordered, order)
			}
			if order.CustomerName == "" {
				order.CustomerName = row.Text(cols.customer)
			}
			if order.BranchCode == "" {
				order.BranchCode = row.Text(cols.branchCode)
				order.BranchName = row.Text(cols.branchName)
			}
			current = order
		}

		if code == "" {
			continue
		}
		if current == nil {
			warnings = append(warnings, &RowParseError{
				Row:    rowNum,
				Reason: fmt.Sprintf("%s ürünü için sipariş numarası yok, satır atlandı", code),
			})
			continue
		}

		qtyCell := row.At(cols.quantity)
		qty, ok := ParseQuantity(qtyCell)
		if !ok {
			if badQuantity(qtyCell) {
				warnings = append(warnings, &RowParseError{
					Row:         rowNum,
					OrderNumber: current.OrderNumber,
					Reason:      fmt.Sprintf("%s için geçersiz miktar %q, kalem atlandı", code, qtyCell.String()),
				})
			}
			continue
		}

		branchCode, branchName := row.Text(cols.branchCode), row.Text(cols.branchName)
		if branchCode == "" {
			branchCode, branchName = current.BranchCode, current.BranchName
		}
		current.Items = append(current.Items, ParsedOrderItem{
			MaterialCode:       code,
			ProductDescription: row.Text(cols.description),
			Quantity:           qty,
			BranchCode:         branchCode,
			BranchName:         branchName,
			Row:                rowNum,
		})
	}

	orders := make([]ParsedOrder, 0, len(ordered))
	for _, o := range ordered {
		if len(o.Items) == 0 {
			warnings = append(warnings, &RowParseError{
				Row:         o.Row,
				OrderNumber: o.OrderNumber,
				Reason:      fmt.Sprintf("sipariş %s içinde geçerli kalem yok, atlandı", o.OrderNumber),
			})
			continue
		}
		orders = append(orders, *o)
	}
	return orders, warnings
}
