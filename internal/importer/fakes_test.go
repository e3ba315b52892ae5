package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lojistik-backend/internal/models"
)

// memCatalog: bellek içi katalog, veritabanı olmadan çözümleme testleri için
type memCatalog struct {
	mu        sync.Mutex
	products  []models.Product
	customers []models.Customer
	branches  []models.CustomerBranch
	nextID    uint
}

func newMemCatalog() *memCatalog {
	return &memCatalog{nextID: 100}
}

func (c *memCatalog) addProduct(p models.Product) {
	p.IsActive = true
	c.products = append(c.products, p)
}

func (c *memCatalog) addCustomer(id uint, name string) models.Customer {
	cu := models.Customer{ID: id, Name: name}
	c.customers = append(c.customers, cu)
	return cu
}

func (c *memCatalog) FindProduct(_ context.Context, key ProductKey, code string) (*models.Product, error) {
	for i := range c.products {
		p := &c.products[i]
		var v string
		switch key {
		case ProductKeySAP:
			v = p.SapCode
		case ProductKeySKU:
			v = p.SKU
		case ProductKeyBarcode:
			v = p.Barcode
		}
		if v != "" && NormalizeCode(v) == code && p.IsActive {
			return p, nil
		}
	}
	return nil, nil
}

func (c *memCatalog) ProductNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(c.products))
	for _, p := range c.products {
		if p.IsActive {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func (c *memCatalog) FindCustomer(_ context.Context, id uint) (*models.Customer, error) {
	for i := range c.customers {
		if c.customers[i].ID == id {
			return &c.customers[i], nil
		}
	}
	return nil, nil
}

func (c *memCatalog) FindCustomerByName(_ context.Context, name string) (*models.Customer, error) {
	for i := range c.customers {
		if NormalizeName(c.customers[i].Name) == NormalizeName(name) {
			return &c.customers[i], nil
		}
	}
	return nil, nil
}

func (c *memCatalog) ResolveOrCreateBranch(_ context.Context, customerID uint, code, name string) (*models.CustomerBranch, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.branches {
		b := &c.branches[i]
		if b.CustomerID == customerID && b.Code == code {
			return b, false, nil
		}
	}
	c.nextID++
	c.branches = append(c.branches, models.CustomerBranch{
		ID:          c.nextID,
		CustomerID:  customerID,
		Code:        code,
		Name:        name,
		AutoCreated: true,
	})
	return &c.branches[len(c.branches)-1], true, nil
}

// memOrders: sipariş numarası tekilliğini bellekte sağlar
type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	nextID uint
	// failOn: bu numaralı siparişin kaydı hata verir
	failOn map[string]error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*models.Order), failOn: make(map[string]error)}
}

func (s *memOrders) OrderExists(_ context.Context, orderNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orders[orderNumber]
	return ok, nil
}

func (s *memOrders) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[order.OrderNumber]; ok {
		return err
	}
	if _, ok := s.orders[order.OrderNumber]; ok {
		return fmt.Errorf("insert: %w", ErrDuplicateOrder)
	}
	s.nextID++
	order.ID = s.nextID
	s.orders[order.OrderNumber] = order
	return nil
}

// memJobs: her kayıtta işin durumunu geçmişe ekler
type memJobs struct {
	jobs    map[uint]models.ImportJob
	history []models.ImportStatus
	nextID  uint
	failAll bool
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[uint]models.ImportJob)}
}

func (s *memJobs) CreateJob(_ context.Context, job *models.ImportJob) error {
	if s.failAll {
		return errors.New("db kapalı")
	}
	s.nextID++
	job.ID = s.nextID
	s.jobs[job.ID] = *job
	s.history = append(s.history, job.Status)
	return nil
}

func (s *memJobs) SaveJob(_ context.Context, job *models.ImportJob) error {
	s.jobs[job.ID] = *job
	s.history = append(s.history, job.Status)
	return nil
}
