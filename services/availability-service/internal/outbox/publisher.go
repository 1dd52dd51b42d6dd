package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/conferences/libs/kafkax"
	"github.com/md-rashed-zaman/conferences/libs/metrics"
	otelx "github.com/md-rashed-zaman/conferences/libs/otel"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Store interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
	FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error
}

// Writer is satisfied by *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type PublisherConfig struct {
	PollEvery time.Duration
	BatchSize int
}

// Publisher moves committed outbox rows to Kafka.
type Publisher struct {
	store     Store
	writer    Writer
	logger    *zap.Logger
	pollEvery time.Duration
	batchSize int
}

func NewPublisher(store Store, writer Writer, logger *zap.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		store:     store,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx)
			if err != nil {
				metrics.OutboxPublished.WithLabelValues("error").Inc()
				p.logger.Error("outbox publish failed", zap.Error(err))
				continue
			}
			if n > 0 {
				metrics.OutboxPublished.WithLabelValues("ok").Add(float64(n))
			}
		}
	}
}

// PublishBatch sends one batch and marks it published in the same
// transaction. Delivery is at least once.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	var published int
	err := p.store.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.store.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
			meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType}
			msgs = append(msgs, kafka.Message{
				Topic:   r.EventType,
				Key:     []byte(r.AggregateID),
				Value:   r.Payload,
				Headers: kafkax.InjectTraceHeaders(msgCtx, meta.Headers()),
			})
			ids = append(ids, r.ID)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := p.store.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		published = len(records)
		return nil
	})
	return published, err
}
