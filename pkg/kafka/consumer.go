package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, cause error, group string) error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// MaxRetries is the number of handler attempts per message before it is
	// sent to the DLQ (when configured) and committed.
	MaxRetries   int
	RetryBackoff time.Duration
}

// Consumer reads events from one topic within a consumer group, committing
// each message after its handler succeeds or is given up on.
type Consumer struct {
	reader     messageReader
	topic      string
	group      string
	handler    Handler
	maxRetries int
	backoff    time.Duration

	dlq         deadLetterPublisher
	idempotency IdempotencyStore
	metrics     *Metrics
	logger      *slog.Logger
	closeOnce   sync.Once
}

// ConsumerOption configures optional consumer behaviour.
type ConsumerOption func(*Consumer)

// WithDLQ sends messages that exhaust their retries to a dead-letter topic.
func WithDLQ(dlq *DLQProducer) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// WithIdempotency skips events whose ID the store has already seen.
func WithIdempotency(store IdempotencyStore) ConsumerOption {
	return func(c *Consumer) { c.idempotency = store }
}

// WithMetrics records consumer metrics.
func WithMetrics(m *Metrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

// NewConsumer creates a consumer for cfg.Topic in cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, logger, opts...)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:     r,
		topic:      cfg.Topic,
		group:      cfg.GroupID,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     logger,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.backoff <= 0 {
		c.backoff = 100 * time.Millisecond
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.topic),
		slog.String("group", c.group),
	)
	defer func() { _ = c.Close() }()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping", slog.String("topic", c.topic))
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process runs the handler for msg. It never returns an error: after the
// last retry the message is dead-lettered or dropped so the partition keeps
// moving.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx = extractTrace(ctx, &msg)

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.deadLetter(ctx, msg, err)
		return
	}

	if c.seen(ctx, event) {
		c.metrics.incDuplicate(c.topic, c.group)
		c.logger.DebugContext(ctx, "skipping duplicate event", slog.String("event_id", event.EventID))
		return
	}

	start := time.Now()
	lastErr := c.handleWithRetry(ctx, msg, event)
	c.metrics.observeConsume(c.topic, c.group, time.Since(start).Seconds(), lastErr)

	if lastErr != nil {
		c.logger.ErrorContext(ctx, "handler failed after all retries",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int64("offset", msg.Offset),
			slog.String("error", lastErr.Error()),
		)
		c.deadLetter(ctx, msg, lastErr)
		return
	}

	if c.idempotency != nil && event.EventID != "" {
		if err := c.idempotency.Add(ctx, event.EventID); err != nil {
			c.logger.WarnContext(ctx, "failed to record processed event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return lastErr
}

func (c *Consumer) seen(ctx context.Context, event *Event) bool {
	if c.idempotency == nil || event.EventID == "" {
		return false
	}
	ok, err := c.idempotency.Contains(ctx, event.EventID)
	if err != nil {
		// Reprocessing is safer than dropping the event.
		c.logger.WarnContext(ctx, "idempotency lookup failed, processing anyway",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		c.logger.ErrorContext(ctx, "failed to publish to DLQ",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return
	}
	c.metrics.incDLQ(c.topic, c.group)
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
