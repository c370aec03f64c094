package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sellora/marketplace-service/internal/domain"
)

type AuditRepo interface {
	AddEntry(ctx context.Context, e *domain.AuditLogEntry) error
	List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditLogEntry, error)
	Count(ctx context.Context, f domain.AuditFilter) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(p *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: p}
}

func (r *AuditRepository) AddEntry(ctx context.Context, e *domain.AuditLogEntry) error {
	before, err := json.Marshal(e.Before)
	if err != nil {
		return errors.Wrap(err, "encode audit before")
	}
	after, err := json.Marshal(e.After)
	if err != nil {
		return errors.Wrap(err, "encode audit after")
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return errors.Wrap(err, "encode audit metadata")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO mp.audit_log
			(id, actor, actor_role, action, resource_type, resource_id,
			 before, after, metadata, correlation_id, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Actor, string(e.ActorRole), e.Action, e.ResourceType, e.ResourceID,
		before, after, meta, e.CorrelationID, e.IP, e.UserAgent, e.CreatedAt)
	return errors.Wrap(err, "insert audit entry")
}

const auditWhere = `
	 WHERE ($1 = '' OR action = $1)
	   AND ($2 = '' OR resource_type = $2)
	   AND ($3 = '' OR resource_id = $3)
	   AND ($4 = '' OR actor_role = $4)
	   AND ($5 = '' OR actor = $5)
	   AND ($6::timestamptz IS NULL OR created_at >= $6)
	   AND ($7::timestamptz IS NULL OR created_at <= $7)`

func auditArgs(f domain.AuditFilter) []any {
	var from, to *time.Time
	if !f.From.IsZero() {
		from = &f.From
	}
	if !f.To.IsZero() {
		to = &f.To
	}
	return []any{f.Action, f.ResourceType, f.ResourceID, f.ActorRole, f.Actor, from, to}
}

func (r *AuditRepository) List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditLogEntry, error) {
	args := append(auditArgs(f), limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor, actor_role, action, resource_type, resource_id,
				before, after, metadata, correlation_id, ip, user_agent, created_at
		 FROM mp.audit_log`+auditWhere+`
		 ORDER BY created_at DESC LIMIT $8 OFFSET $9`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list audit entries")
	}
	defer rows.Close()

	out := []domain.AuditLogEntry{}
	for rows.Next() {
		var (
			e                   domain.AuditLogEntry
			role                string
			before, after, meta []byte
		)
		if err := rows.Scan(&e.ID, &e.Actor, &role, &e.Action, &e.ResourceType, &e.ResourceID,
			&before, &after, &meta, &e.CorrelationID, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan audit entry")
		}
		e.ActorRole = domain.Role(role)
		if err := json.Unmarshal(before, &e.Before); err != nil {
			return nil, errors.Wrap(err, "decode audit before")
		}
		if err := json.Unmarshal(after, &e.After); err != nil {
			return nil, errors.Wrap(err, "decode audit after")
		}
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return nil, errors.Wrap(err, "decode audit metadata")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "audit rows")
}

func (r *AuditRepository) Count(ctx context.Context, f domain.AuditFilter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.audit_log`+auditWhere, auditArgs(f)...).Scan(&n)
	return n, errors.Wrap(err, "count audit entries")
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mp.audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "delete expired audit entries")
	}
	return tag.RowsAffected(), nil
}
