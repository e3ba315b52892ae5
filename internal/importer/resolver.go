package importer

import (
	"context"
	"fmt"

	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type ProductKey string

const (
	ProductKeySAP     ProductKey = "sap_code"
	ProductKeySKU     ProductKey = "sku"
	ProductKeyBarcode ProductKey = "barcode"
)

// Ürün kodları bu sırayla denenir
var productKeyOrder = []ProductKey{ProductKeySAP, ProductKeySKU, ProductKeyBarcode}

// Catalog: ürün/müşteri/şube kataloğu. Bulunamayan kayıtlar için (nil, nil) döner.
// ResolveOrCreateBranch okuma yolunda yazma yapan tek metottur.
type Catalog interface {
	FindProduct(ctx context.Context, key ProductKey, code string) (*models.Product, error)
	// ProductNames: öneri için aktif ürün adları, içe aktarım başına bir kez okunur
	ProductNames(ctx context.Context) ([]string, error)
	FindCustomer(ctx context.Context, id uint) (*models.Customer, error)
	FindCustomerByName(ctx context.Context, name string) (*models.Customer, error)
	ResolveOrCreateBranch(ctx context.Context, customerID uint, code, name string) (branch *models.CustomerBranch, created bool, err error)
}

type ResolvedItem struct {
	Parsed    ParsedOrderItem
	ProductID uint
}

type ResolvedOrder struct {
	Parsed     ParsedOrder
	CustomerID uint
	BranchID   *uint
	Items      []ResolvedItem
}

type branchKey struct {
	customerID uint
	code       string
}

type productLookup struct {
	product *models.Product
	reason  string
}

// Resolver: tek bir içe aktarım boyunca katalog sonuçlarını önbellekte tutar
type Resolver struct {
	catalog         Catalog
	defaultCustomer *models.Customer

	products  map[string]productLookup
	customers map[string]*models.Customer
	branches  map[branchKey]*models.CustomerBranch
	matcher   *productMatcher

	BranchesCreated int
}

func NewResolver(catalog Catalog, defaultCustomer *models.Customer) *Resolver {
	return &Resolver{
		catalog:         catalog,
		defaultCustomer: defaultCustomer,
		products:        make(map[string]productLookup),
		customers:       make(map[string]*models.Customer),
		branches:        make(map[branchKey]*models.CustomerBranch),
	}
}

// ResolveOrder: siparişin müşteri, şube ve ürünlerini katalogla eşleştirir.
// Çözülemeyen kalemler düşer; hiç kalem kalmazsa nil döner.
func (r *Resolver) ResolveOrder(ctx context.Context, po ParsedOrder) (*ResolvedOrder, []error) {
	var issues []error

	customer, err := r.resolveCustomer(ctx, po.CustomerName)
	if err != nil {
		return nil, []error{&ResolutionError{Row: po.Row, OrderNumber: po.OrderNumber, Reason: err.Error()}}
	}

	ro := &ResolvedOrder{Parsed: po, CustomerID: customer.ID}

	if po.BranchCode != "" {
		branch, err := r.resolveBranch(ctx, customer.ID, po.BranchCode, po.BranchName)
		if err != nil {
			return nil, []error{&ResolutionError{
				Row:         po.Row,
				OrderNumber: po.OrderNumber,
				Code:        po.BranchCode,
				Reason:      fmt.Sprintf("şube çözülemedi: %v", err),
			}}
		}
		ro.BranchID = &branch.ID
	}

	for _, item := range po.Items {
		product, reason := r.resolveProduct(ctx, item)
		if product == nil {
			issues = append(issues, &ResolutionError{
				Row:         item.Row,
				OrderNumber: po.OrderNumber,
				Code:        item.MaterialCode,
				Reason:      reason,
			})
			continue
		}
		ro.Items = append(ro.Items, ResolvedItem{Parsed: item, ProductID: product.ID})
	}

	if len(ro.Items) == 0 {
		issues = append(issues, &ResolutionError{
			Row:         po.Row,
			OrderNumber: po.OrderNumber,
			Reason:      "siparişin hiçbir kalemi katalogla eşleşmedi, sipariş aktarılmadı",
		})
		return nil, issues
	}
	return ro, issues
}

func (r *Resolver) resolveCustomer(ctx context.Context, name string) (*models.Customer, error) {
	key := NormalizeName(name)
	if key == "" {
		if r.defaultCustomer == nil {
			return nil, fmt.Errorf("siparişte müşteri yok ve yüklemede müşteri seçilmedi")
		}
		return r.defaultCustomer, nil
	}

	if c, ok := r.customers[key]; ok {
		return c, nil
	}
	c, err := r.catalog.FindCustomerByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("müşteri aranamadı: %v", err)
	}
	if c == nil {
		if r.defaultCustomer == nil {
			return nil, fmt.Errorf("%q müşterisi bulunamadı", name)
		}
		logger.Log.WithField("customer", name).Debug("Müşteri bulunamadı, yüklemedeki müşteri kullanılıyor")
		c = r.defaultCustomer
	}
	r.customers[key] = c
	return c, nil
}

func (r *Resolver) resolveBranch(ctx context.Context, customerID uint, code, name string) (*models.CustomerBranch, error) {
	key := branchKey{customerID: customerID, code: NormalizeCode(code)}
	if b, ok := r.branches[key]; ok {
		return b, nil
	}
	b, created, err := r.catalog.ResolveOrCreateBranch(ctx, customerID, key.code, name)
	if err != nil {
		return nil, err
	}
	if created {
		r.BranchesCreated++
		logger.Log.WithFields(logrus.Fields{
			"customer_id": customerID,
			"branch_code": key.code,
		}).Info("Yeni şube otomatik oluşturuldu")
	}
	r.branches[key] = b
	return b, nil
}

func (r *Resolver) resolveProduct(ctx context.Context, item ParsedOrderItem) (*models.Product, string) {
	code := NormalizeCode(item.MaterialCode)
	if hit, ok := r.products[code]; ok {
		return hit.product, hit.reason
	}

	lookup := productLookup{}
	for _, key := range productKeyOrder {
		p, err := r.catalog.FindProduct(ctx, key, code)
		if err != nil {
			// Veritabanı hatası önbelleğe alınmaz, sonraki kalemde tekrar denenir
			return nil, fmt.Sprintf("ürün aranamadı: %v", err)
		}
		if p != nil {
			lookup.product = p
			break
		}
	}

	if lookup.product == nil {
		lookup.reason = "ürün katalogda bulunamadı"
		if item.ProductDescription != "" {
			if s := r.suggestProduct(ctx, item.ProductDescription); s != "" {
				lookup.reason = fmt.Sprintf("ürün katalogda bulunamadı (en yakın: %s)", s)
			}
		}
	}
	r.products[code] = lookup
	return lookup.product, lookup.reason
}

// suggestProduct: eşleştirici ilk bulunamayan üründe kurulur. Okuma hatası önbelleğe alınmaz.
func (r *Resolver) suggestProduct(ctx context.Context, description string) string {
	if r.matcher == nil {
		names, err := r.catalog.ProductNames(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("Ürün önerileri için katalog okunamadı")
			return ""
		}
		r.matcher = newProductMatcher(names)
	}
	return r.matcher.Closest(description)
}
