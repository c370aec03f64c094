package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sellora/marketplace-service/internal/domain"
)

type NotificationRepo interface {
	AddNotification(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID string) error
}

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(p *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: p}
}

func (r *NotificationRepository) AddNotification(ctx context.Context, n *domain.Notification) error {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return errors.Wrap(err, "encode notification metadata")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO mp.notifications (id, user_id, title, message, type, metadata, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, meta, n.Read, n.CreatedAt)
	return errors.Wrap(err, "insert notification")
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, message, type, metadata, read, created_at
		 FROM mp.notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var (
			n    domain.Notification
			meta []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &meta, &n.Read, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		if err := json.Unmarshal(meta, &n.Metadata); err != nil {
			return nil, errors.Wrap(err, "decode notification metadata")
		}
		out = append(out, n)
	}
	return out, errors.Wrap(rows.Err(), "notification rows")
}

func (r *NotificationRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.notifications WHERE user_id = $1`, userID).Scan(&n)
	return n, errors.Wrap(err, "count notifications")
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	return n, errors.Wrap(err, "unread count")
}

// MarkRead is scoped to the recipient; marking an already-read or unknown
// notification affects zero rows and is still a success.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE mp.notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	return errors.Wrap(err, "mark notification read")
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE mp.notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	return errors.Wrap(err, "mark all notifications read")
}
