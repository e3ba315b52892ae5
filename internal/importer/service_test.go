package importer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lojistik-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishImported(ctx context.Context, summary *Summary) error {
	return m.Called(ctx, summary).Error(0)
}

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) RecordImport(ctx context.Context, userID uint, job *models.ImportJob, summary *Summary) error {
	return m.Called(ctx, userID, job, summary).Error(0)
}

type serviceFixture struct {
	catalog *memCatalog
	orders  *memOrders
	jobs    *memJobs
	service *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	cat := newMemCatalog()
	cat.addCustomer(1, "Korzinka")
	cat.addCustomer(2, "Makro")
	cat.addProduct(models.Product{ID: 1, Name: "Muz 1kg", SapCode: "M1"})
	cat.addProduct(models.Product{ID: 2, Name: "Elma 1kg", SKU: "SKU-2"})
	cat.addProduct(models.Product{ID: 3, Name: "Armut 1kg", Barcode: "4600003"})

	fx := &serviceFixture{catalog: cat, orders: newMemOrders(), jobs: newMemJobs()}
	fx.service = NewService(Deps{
		Catalog: cat,
		Orders:  fx.orders,
		Jobs:    fx.jobs,
		MaxRows: 1000,
	})
	seq := 0
	fx.service.newID = func() string {
		seq++
		return "batch-" + string(rune('0'+seq))
	}
	fx.service.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return fx
}

func detailedFile(t *testing.T) []byte {
	return xlsxFile(t, [][]interface{}{
		{"Заказ №", "Клиент", "Код филиала", "Филиал", "Код товара", "Наименование", "Количество"},
		{"1001", "Korzinka", "K001", "Korzinka-A", "M1", "Muz 1kg", 5},
		{nil, nil, nil, nil, "SKU-2", "Elma 1kg", "2,5"},
		{"1002", "Makro", "B7", "Makro-7", "4600003", "Armut 1kg", 1},
		{"1003", "Korzinka", "K001", "Korzinka-A", "M1", "Muz 1kg", "3 шт"},
		{nil, nil, nil, nil, "YOK-1", "Muz 2kg", 1},
	})
}

func TestService_ImportIsIdempotent(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	data := detailedFile(t)

	first, err := fx.service.Import(ctx, ImportRequest{Filename: "orders.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, SourceDetailed, first.Format)
	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, []string{"1001", "1002", "1003"}, first.CreatedOrders)
	assert.Equal(t, 2, first.BranchesCreated)

	second, err := fx.service.Import(ctx, ImportRequest{Filename: "orders.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.BranchesCreated)
	assert.NotEqual(t, first.BatchID, second.BatchID)

	assert.Len(t, fx.orders.orders, 3)
}

func TestService_PartialFailureIsolation(t *testing.T) {
	fx := newServiceFixture(t)
	fx.orders.failOn["1002"] = errors.New("check constraint")

	summary, err := fx.service.Import(context.Background(), ImportRequest{Filename: "orders.xlsx", Data: detailedFile(t)})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)

	// 1003: bilinmeyen ürün düşer, sipariş kalan kalemle kaydedilir
	order := fx.orders.orders["1003"]
	require.NotNil(t, order)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "3", order.Items[0].Quantity.String())
	assert.Equal(t, models.OrderSourceDetailed, order.Source)
	assert.Equal(t, summary.BatchID, order.BatchID)
	require.NotNil(t, order.ImportJobID)
	assert.Equal(t, summary.JobID, *order.ImportJobID)

	kinds := map[IssueKind][]string{}
	for _, issue := range summary.Errors {
		kinds[issue.Kind] = append(kinds[issue.Kind], issue.OrderNumber)
	}
	assert.Equal(t, []string{"1003"}, kinds[IssueResolution])
	assert.Equal(t, []string{"1002"}, kinds[IssuePersistence])

	job := fx.jobs.jobs[summary.JobID]
	assert.Equal(t, models.ImportStatusDone, job.Status)
	assert.Equal(t, 2, job.Created)
	assert.Equal(t, 2, job.ErrorCount)
}

func TestService_JobStateMachine(t *testing.T) {
	fx := newServiceFixture(t)
	summary, err := fx.service.Import(context.Background(), ImportRequest{Filename: "orders.xlsx", Data: detailedFile(t), UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, []models.ImportStatus{
		models.ImportStatusPending,
		models.ImportStatusParsing,
		models.ImportStatusResolving,
		models.ImportStatusPersisting,
		models.ImportStatusDone,
	}, fx.jobs.history)

	job := fx.jobs.jobs[summary.JobID]
	require.NotNil(t, job.UserID)
	assert.Equal(t, uint(7), *job.UserID)
	assert.Equal(t, models.OrderSourceDetailed, job.Source)
	require.NotNil(t, job.FinishedAt)

	var stored Summary
	require.NoError(t, json.Unmarshal(job.Summary, &stored))
	assert.Equal(t, summary.Created, stored.Created)
	assert.Equal(t, summary.BatchID, stored.BatchID)
}

func TestService_FormatErrorFailsJob(t *testing.T) {
	fx := newServiceFixture(t)
	_, err := fx.service.Import(context.Background(), ImportRequest{Filename: "notes.txt", Data: []byte("merhaba")})

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []models.ImportStatus{
		models.ImportStatusPending,
		models.ImportStatusParsing,
		models.ImportStatusFailed,
	}, fx.jobs.history)

	job := fx.jobs.jobs[1]
	assert.Equal(t, models.ImportStatusFailed, job.Status)
	assert.NotEmpty(t, job.FailureReason)
	assert.Empty(t, fx.orders.orders)
}

func TestService_DetectionFailureFailsJob(t *testing.T) {
	fx := newServiceFixture(t)
	data := xlsxFile(t, [][]interface{}{{"tek", "satır"}})

	_, err := fx.service.Import(context.Background(), ImportRequest{Filename: "x.xlsx", Data: data})
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, models.ImportStatusFailed, fx.jobs.jobs[1].Status)
}

func TestService_UnknownDefaultCustomer(t *testing.T) {
	fx := newServiceFixture(t)
	_, err := fx.service.Import(context.Background(), ImportRequest{Filename: "orders.xlsx", Data: detailedFile(t), DefaultCustomerID: 99})
	assert.ErrorIs(t, err, ErrUnknownCustomer)
	assert.Empty(t, fx.jobs.jobs)
}

func TestService_JobStoreUnavailable(t *testing.T) {
	fx := newServiceFixture(t)
	fx.jobs.failAll = true
	_, err := fx.service.Import(context.Background(), ImportRequest{Filename: "orders.xlsx", Data: detailedFile(t)})
	require.Error(t, err)
	var fe *FormatError
	assert.False(t, errors.As(err, &fe))
}

func registryFile(t *testing.T) []byte {
	return xlsxFile(t, [][]interface{}{
		{nil, nil, nil, "K001", "K002", "K003", "K004", "K005", "K006", "K007", "K008"},
		{nil, nil, nil, "Korzinka-1", "Korzinka-2", "Korzinka-3", "Korzinka-4", "Korzinka-5", "Korzinka-6", "Korzinka-7", "Korzinka-8"},
		{nil, nil, nil, "R-1", "R-2", nil, "R-4", "R-5", "R-6", "R-7", "R-1"},
		{1, "M1", "Muz 1kg", 5, 3, 2, nil, nil, nil, nil, 1},
		{2, "SKU-2", "Elma 1kg", nil, 1, nil, nil, nil, nil, nil, nil},
	})
}

func TestService_RegistryImport(t *testing.T) {
	fx := newServiceFixture(t)
	pub := new(mockPublisher)
	aud := new(mockAuditor)
	fx.service.deps.Publisher = pub
	fx.service.deps.Auditor = aud
	pub.On("PublishImported", mock.Anything, mock.AnythingOfType("*importer.Summary")).Return(nil).Once()
	aud.On("RecordImport", mock.Anything, uint(3), mock.AnythingOfType("*models.ImportJob"), mock.AnythingOfType("*importer.Summary")).
		Return(errors.New("audit kapalı")).Once()

	summary, err := fx.service.Import(context.Background(), ImportRequest{
		Filename:          "registry.xlsx",
		Data:              registryFile(t),
		DefaultCustomerID: 1,
		UserID:            3,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceRegistry, summary.Format)

	// K003 (numara yok) ve K008 (R-1 tekrar) işaretlenir, kaydedilmez
	assert.Equal(t, []string{"R-1", "R-2"}, summary.CreatedOrders)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 4, summary.BranchesCreated)

	flagged := 0
	for _, issue := range summary.Errors {
		if issue.Kind == IssueRow {
			flagged++
		}
	}
	assert.Equal(t, 2, flagged)

	r2 := fx.orders.orders["R-2"]
	require.NotNil(t, r2)
	assert.Len(t, r2.Items, 2)
	assert.Equal(t, models.OrderSourceRegistry, r2.Source)
	assert.Equal(t, uint(1), r2.CustomerID)
	require.NotNil(t, r2.CustomerBranchID)

	pub.AssertExpectations(t)
	aud.AssertExpectations(t)
}
