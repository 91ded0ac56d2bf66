// Package consumer dispatches audit records read back from Kafka to
// per-category handlers.
package consumer

import (
	"context"
	"log/slog"

	"guardian/internal/platform/kafka"
	audit "guardian/pkg/platform/audit"
)

// EventHandler receives decoded audit events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event audit.Event) error
}

type EventHandlerFunc func(ctx context.Context, event audit.Event) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, event audit.Event) error {
	return f(ctx, event)
}

// Router implements kafka.Handler. Records on topics without a handler, and
// records whose payload does not decode, are logged and skipped so one bad
// record never wedges a partition.
type Router struct {
	handlers map[string]EventHandler
	fallback EventHandler
	logger   *slog.Logger
}

// NewRouter returns a router. fallback may be nil.
func NewRouter(logger *slog.Logger, fallback EventHandler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: map[string]EventHandler{}, fallback: fallback, logger: logger}
}

// Register routes the topic of category to h.
func (r *Router) Register(category audit.EventCategory, h EventHandler) {
	r.handlers[category.Topic()] = h
}

// Topics lists the registered topics in category order.
func (r *Router) Topics() []string {
	var topics []string
	for _, c := range audit.Categories() {
		if _, ok := r.handlers[c.Topic()]; ok {
			topics = append(topics, c.Topic())
		}
	}
	return topics
}

func (r *Router) Handle(ctx context.Context, msg *kafka.Message) error {
	h, ok := r.handlers[msg.Topic]
	if !ok {
		h = r.fallback
	}
	if h == nil {
		r.logger.WarnContext(ctx, "no audit handler for topic", "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}
	event, err := audit.UnmarshalPayload(msg.Value)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping undecodable audit record",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	return h.HandleEvent(ctx, event)
}
