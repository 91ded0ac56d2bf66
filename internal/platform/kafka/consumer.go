package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"guardian/internal/platform/config"
)

// ErrStop ends Consumer.Run without error when a handler returns it.
var ErrStop = errors.New("stop consuming")

// retryBackoff paces polls that returned only retriable errors, such as a
// topic that has not been created yet.
const retryBackoff = time.Second

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

type ConsumerOptions struct {
	Topics []string
	// Group joins a consumer group and commits offsets. Empty reads without
	// a group, which is what a one-off tail wants.
	Group string
	// FromStart reads each partition from its earliest offset instead of
	// only new records.
	FromStart bool
	Logger    *slog.Logger
}

type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if len(opts.Topics) == 0 {
		return nil, errors.New("at least one topic is required")
	}
	start := kgo.NewOffset().AtEnd()
	if opts.FromStart {
		start = kgo.NewOffset().AtStart()
	}
	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumeTopics(opts.Topics...),
		kgo.ConsumeResetOffset(start),
	}
	if opts.Group != "" {
		kopts = append(kopts, kgo.ConsumerGroup(opts.Group))
	}
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, logger: logger}, nil
}

// Run polls until ctx is cancelled, h fails or a fetch fails for good.
// Retriable fetch errors are logged and polling continues. Records are
// handled in order within a partition. A handler returning ErrStop ends Run
// with nil.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fetches.IsClientClosed() {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			if err := c.checkFetchErrors(ctx, errs); err != nil {
				return err
			}
			if fetches.NumRecords() == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryBackoff):
				}
				continue
			}
		}

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = h.Handle(ctx, &Message{
				Topic:     r.Topic,
				Partition: r.Partition,
				Offset:    r.Offset,
				Key:       r.Key,
				Value:     r.Value,
				Timestamp: r.Timestamp,
			})
		})
		switch {
		case errors.Is(handleErr, ErrStop):
			return nil
		case handleErr != nil:
			return handleErr
		}
	}
}

// checkFetchErrors logs retriable errors and returns the first one that is
// not.
func (c *Consumer) checkFetchErrors(ctx context.Context, errs []kgo.FetchError) error {
	for _, fe := range errs {
		if !kerr.IsRetriable(fe.Err) {
			return fmt.Errorf("fetch %s[%d]: %w", fe.Topic, fe.Partition, fe.Err)
		}
		c.logger.WarnContext(ctx, "retriable fetch error",
			"topic", fe.Topic,
			"partition", fe.Partition,
			"error", fe.Err,
		)
	}
	return nil
}

func (c *Consumer) Close() {
	c.client.Close()
}
