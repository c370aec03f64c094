package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/logger"
	"github.com/sellora/marketplace-service/internal/metrics"
	"github.com/sellora/marketplace-service/internal/repository"
)

// SessionPusher signals a recipient's live sessions. Failures are ignored.
type SessionPusher interface {
	Push(ctx context.Context, userID string, payload any) error
}

// EventPublisher is the fire-and-forget messaging channel (email workers
// and other consumers sit behind it).
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type NotificationsService struct {
	repo   repository.NotificationRepo
	pusher SessionPusher
	events EventPublisher
}

func NewNotificationsService(r repository.NotificationRepo, pusher SessionPusher, events EventPublisher) *NotificationsService {
	return &NotificationsService{repo: r, pusher: pusher, events: events}
}

// Notify persists the notification, then attempts the live-session signal
// and the event publish. Persistence is at-least-once; delivery is
// best-effort and failures there are swallowed.
func (s *NotificationsService) Notify(ctx context.Context, userID, title, message, typ string, meta map[string]any) error {
	n := domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddNotification(ctx, &n); err != nil {
		return err
	}
	metrics.NotificationsDispatched.WithLabelValues(typ).Inc()

	s.push(ctx, userID, map[string]any{"kind": "notification", "notification": n})
	if s.events != nil {
		if err := s.events.PublishEvent(ctx, userID, n); err != nil {
			logger.Warn("notification event publish failed", "user", userID, "err", err)
		}
	}
	return nil
}

func (s *NotificationsService) ListMy(ctx context.Context, userID string, page, limit int) ([]domain.Notification, int, error) {
	limit, offset := pageBounds(page, limit)

	var (
		items []domain.Notification
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListByUser(gctx, userID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *NotificationsService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead is idempotent: re-marking a read notification is a successful
// no-op. The affected session still gets an "updated" signal.
func (s *NotificationsService) MarkRead(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.push(ctx, userID, map[string]any{"kind": "notifications_updated"})
	return nil
}

func (s *NotificationsService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.push(ctx, userID, map[string]any{"kind": "notifications_updated"})
	return nil
}

func (s *NotificationsService) push(ctx context.Context, userID string, payload any) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(ctx, userID, payload); err != nil {
		logger.Warn("session push failed", "user", userID, "err", err)
	}
}
