package importer

import "github.com/shopspring/decimal"

type SourceType string

const (
	SourceDetailed SourceType = "DETAILED"
	SourceRegistry SourceType = "REGISTRY"
)

type ParsedOrderItem struct {
	MaterialCode       string
	ProductDescription string
	Quantity           decimal.Decimal
	BranchCode         string
	BranchName         string
	Row                int
}

// ParsedOrder: dosyadan çıkan tek sipariş. OrderNumber boş olamaz, Items boş olamaz.
type ParsedOrder struct {
	OrderNumber  string
	CustomerName string
	BranchCode   string
	BranchName   string
	Source       SourceType
	Items        []ParsedOrderItem
	// Siparişin ilk görüldüğü satır (1'den başlar)
	Row int

	// Flagged: kolon verisi hatalı (sipariş numarası yok / tekrar ediyor), kaydedilmez
	Flagged    bool
	FlagReason string
}

// Batch: REGISTRY dosyasındaki tüm siparişler aynı BatchID'yi paylaşır
type Batch struct {
	BatchID string
	Orders  []ParsedOrder
}

// ParseResult: DetailedResult | RegistryResult
type ParseResult interface {
	Source() SourceType
	ParsedOrders() []ParsedOrder
	isParseResult()
}

type DetailedResult struct {
	Orders []ParsedOrder
}

func (DetailedResult) Source() SourceType            { return SourceDetailed }
func (r DetailedResult) ParsedOrders() []ParsedOrder { return r.Orders }
func (DetailedResult) isParseResult()                {}

type RegistryResult struct {
	Batch Batch
}

func (RegistryResult) Source() SourceType            { return SourceRegistry }
func (r RegistryResult) ParsedOrders() []ParsedOrder { return r.Batch.Orders }
func (RegistryResult) isParseResult()                {}
