package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// JobStore: içe aktarım işinin durumunu saklar
type JobStore interface {
	CreateJob(ctx context.Context, job *models.ImportJob) error
	SaveJob(ctx context.Context, job *models.ImportJob) error
}

// Publisher: içe aktarım tamamlandığında bildirim yayınlar
type Publisher interface {
	PublishImported(ctx context.Context, summary *Summary) error
}

// Auditor: tamamlanan içe aktarımı audit log'a yazar
type Auditor interface {
	RecordImport(ctx context.Context, userID uint, job *models.ImportJob, summary *Summary) error
}

type Deps struct {
	Catalog Catalog
	Orders  OrderStore
	Jobs    JobStore
	// Opsiyonel
	Publisher Publisher
	Auditor   Auditor
	MaxRows   int
}

type ImportRequest struct {
	Filename string
	Data     []byte
	// Dosyada müşteri bilgisi olmayan siparişler bu müşteriye yazılır (0 = yok)
	DefaultCustomerID uint
	UserID            uint
}

// Service: dosya → format tespiti → çıkarım → katalog eşleştirme → kayıt.
// Tek istek içinde senkron çalışır, istekler arasında paylaşılan durum tutmaz.
type Service struct {
	deps  Deps
	newID func() string
	now   func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{
		deps:  deps,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// Import: tüm dosyayı işler. Sadece dosya okunamadığında / format tanınamadığında
// *FormatError döner; diğer tüm hatalar Summary.Errors içindedir.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*Summary, error) {
	var defaultCustomer *models.Customer
	if req.DefaultCustomerID != 0 {
		c, err := s.deps.Catalog.FindCustomer(ctx, req.DefaultCustomerID)
		if err != nil {
			return nil, fmt.Errorf("müşteri aranamadı: %w", err)
		}
		if c == nil {
			return nil, ErrUnknownCustomer
		}
		defaultCustomer = c
	}

	batchID := s.newID()
	job := &models.ImportJob{
		BatchID:  batchID,
		Filename: req.Filename,
		Status:   models.ImportStatusPending,
	}
	if req.UserID != 0 {
		uid := req.UserID
		job.UserID = &uid
	}
	if err := s.deps.Jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("import kaydı oluşturulamadı: %w", err)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"batch_id": batchID,
		"filename": req.Filename,
	})

	s.transition(ctx, log, job, models.ImportStatusParsing)
	rows, err := ReadWorkbook(req.Filename, req.Data, s.deps.MaxRows)
	if err != nil {
		s.fail(ctx, log, job, err)
		return nil, err
	}
	result, warnings, err := Parse(rows, batchID)
	if err != nil {
		s.fail(ctx, log, job, err)
		return nil, err
	}

	summary := newSummary(batchID)
	summary.JobID = job.ID
	summary.Format = result.Source()
	summary.addIssues(warnings)
	job.Source = orderSource(result.Source())
	log = log.WithField("format", result.Source())
	log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"orders":   len(result.ParsedOrders()),
		"warnings": len(warnings),
	}).Info("Dosya çözümlendi")

	s.transition(ctx, log, job, models.ImportStatusResolving)
	resolver := NewResolver(s.deps.Catalog, defaultCustomer)
	var resolved []*ResolvedOrder
	for _, po := range result.ParsedOrders() {
		ro, issues := resolver.ResolveOrder(ctx, po)
		summary.addIssues(issues)
		if ro != nil {
			resolved = append(resolved, ro)
		}
	}
	summary.BranchesCreated = resolver.BranchesCreated

	s.transition(ctx, log, job, models.ImportStatusPersisting)
	for _, ro := range resolved {
		// Hatalı kolondan gelen siparişler uyarı olarak raporlandı, kaydedilmez
		if ro.Parsed.Flagged {
			continue
		}
		outcome, err := persistOrder(ctx, s.deps.Orders, ro, job)
		switch outcome {
		case outcomeCreated:
			summary.Created++
			summary.CreatedOrders = append(summary.CreatedOrders, ro.Parsed.OrderNumber)
		case outcomeSkipped:
			summary.Skipped++
			summary.SkippedOrders = append(summary.SkippedOrders, ro.Parsed.OrderNumber)
		default:
			summary.addIssues([]error{err})
			log.WithField("order_number", ro.Parsed.OrderNumber).WithError(err).Warn("Sipariş kaydedilemedi")
		}
	}

	job.Created = summary.Created
	job.Skipped = summary.Skipped
	job.ErrorCount = len(summary.Errors)
	if b, err := json.Marshal(summary); err == nil {
		job.Summary = datatypes.JSON(b)
	}
	finished := s.now()
	job.FinishedAt = &finished
	s.transition(ctx, log, job, models.ImportStatusDone)

	log.WithFields(logrus.Fields{
		"created": summary.Created,
		"skipped": summary.Skipped,
		"errors":  len(summary.Errors),
	}).Info("İçe aktarım tamamlandı")

	if s.deps.Auditor != nil {
		if err := s.deps.Auditor.RecordImport(ctx, req.UserID, job, summary); err != nil {
			log.WithError(err).Warn("Audit log yazılamadı")
		}
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishImported(ctx, summary); err != nil {
			log.WithError(err).Warn("İçe aktarım eventi yayınlanamadı")
		}
	}

	return summary, nil
}

// transition: geçersiz geçişler programlama hatasıdır, loglanır ve uygulanmaz.
// İş kaydının güncellenememesi içe aktarımı durdurmaz.
func (s *Service) transition(ctx context.Context, log *logrus.Entry, job *models.ImportJob, to models.ImportStatus) {
	if !models.CanTransitionImportStatus(job.Status, to) {
		log.WithFields(logrus.Fields{"from": job.Status, "to": to}).Error("Geçersiz import durum geçişi")
		return
	}
	job.Status = to
	if err := s.deps.Jobs.SaveJob(ctx, job); err != nil {
		log.WithError(err).WithField("status", to).Warn("Import durumu kaydedilemedi")
	}
}

func (s *Service) fail(ctx context.Context, log *logrus.Entry, job *models.ImportJob, cause error) {
	job.FailureReason = truncate(cause.Error(), 500)
	finished := s.now()
	job.FinishedAt = &finished
	s.transition(ctx, log, job, models.ImportStatusFailed)
	log.WithError(cause).Warn("İçe aktarım başarısız")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
