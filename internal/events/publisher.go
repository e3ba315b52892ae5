package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/logger"

	"github.com/nats-io/nats.go"
)

// ImportedEvent: <prefix>.imported subject'ine yayınlanan içe aktarım özeti
type ImportedEvent struct {
	JobID           uint                `json:"job_id"`
	BatchID         string              `json:"batch_id"`
	Format          importer.SourceType `json:"format"`
	Created         int                 `json:"created"`
	Skipped         int                 `json:"skipped"`
	Errors          int                 `json:"errors"`
	BranchesCreated int                 `json:"branches_created"`
	OrderNumbers    []string            `json:"order_numbers"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

func NewImportedEvent(s *importer.Summary, at time.Time) ImportedEvent {
	numbers := s.CreatedOrders
	if numbers == nil {
		numbers = []string{}
	}
	return ImportedEvent{
		JobID:           s.JobID,
		BatchID:         s.BatchID,
		Format:          s.Format,
		Created:         s.Created,
		Skipped:         s.Skipped,
		Errors:          len(s.Errors),
		BranchesCreated: s.BranchesCreated,
		OrderNumbers:    numbers,
		OccurredAt:      at.UTC(),
	}
}

// Subject: prefix boşsa "orders" kullanılır
func Subject(prefix string) string {
	if prefix == "" {
		prefix = "orders"
	}
	return prefix + ".imported"
}

// NATSPublisher: importer.Publisher'ı NATS core publish ile uygular
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

var _ importer.Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("lojistik-backend"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.WithField("url", nc.ConnectedUrl()).Info("NATS bağlantısı yeniden kuruldu")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log.WithError(err).Warn("NATS bağlantısı koptu")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS bağlantısı kurulamadı: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: Subject(prefix)}, nil
}

func (p *NATSPublisher) PublishImported(ctx context.Context, summary *importer.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewImportedEvent(summary, time.Now()))
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("%s yayınlanamadı: %w", p.subject, err)
	}
	return nil
}

func (p *NATSPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
