package application

import (
	"context"

	"github.com/sellora/marketplace-service/internal/logger"
	"github.com/sellora/marketplace-service/internal/metrics"
)

// Task is one pending side effect (audit write, notification fan-out)
// queued after the primary mutation committed.
type Task struct {
	Kind string
	Run  func(ctx context.Context) error
}

// Outbox decouples best-effort side effects from the mutation they follow.
// Enqueue never blocks and never fails the caller.
type Outbox interface {
	Enqueue(t Task)
}

// ChannelOutbox is an in-process outbox: a bounded buffer drained by a
// worker goroutine. A full buffer drops the task rather than stalling the
// request that produced it.
type ChannelOutbox struct {
	tasks chan Task
}

func NewOutbox(buffer int) *ChannelOutbox {
	return &ChannelOutbox{tasks: make(chan Task, buffer)}
}

func (o *ChannelOutbox) Enqueue(t Task) {
	select {
	case o.tasks <- t:
	default:
		metrics.OutboxDropped.Inc()
		logger.Warn("outbox full, task dropped", "kind", t.Kind)
	}
}

// Start runs the worker until ctx is cancelled. Task failures and panics
// are contained here; they never reach the request path.
func (o *ChannelOutbox) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-o.tasks:
				o.run(ctx, t)
			}
		}
	}()
}

func (o *ChannelOutbox) run(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outbox task panicked", "kind", t.Kind, "panic", r)
		}
	}()

	if err := t.Run(ctx); err != nil {
		logger.Warn("outbox task failed", "kind", t.Kind, "err", err)
	}
	metrics.OutboxProcessed.WithLabelValues(t.Kind).Inc()
}
