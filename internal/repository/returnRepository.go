package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sellora/marketplace-service/internal/domain"
)

type ReturnRepo interface {
	AddReturn(ctx context.Context, req *domain.ReturnRequest) error
	GetReturnByID(ctx context.Context, id uuid.UUID) (*domain.ReturnRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReturnStatus, history []domain.ReturnHistoryEntry, revision int64) error
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.ReturnRequest, error)
	CountByEmail(ctx context.Context, email string) (int, error)
	ListByVendor(ctx context.Context, vendorID, status string, limit, offset int) ([]domain.ReturnRequest, error)
	CountByVendor(ctx context.Context, vendorID, status string) (int, error)
	ListAll(ctx context.Context, status, emailSearch string, limit, offset int) ([]domain.ReturnRequest, error)
	CountAll(ctx context.Context, status, emailSearch string) (int, error)
}

type ReturnRepository struct {
	pool *pgxpool.Pool
}

func NewReturnRepository(p *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: p}
}

const returnColumns = `id, order_id, customer_email, items, status, notes, history, revision, created_at`

func (r *ReturnRepository) AddReturn(ctx context.Context, req *domain.ReturnRequest) error {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return errors.Wrap(err, "encode return items")
	}
	history, err := json.Marshal(req.History)
	if err != nil {
		return errors.Wrap(err, "encode return history")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO mp.return_requests
			(id, order_id, customer_email, items, status, notes, history, revision, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.OrderID, req.CustomerEmail, items, string(req.Status),
		req.Notes, history, req.Revision, req.CreatedAt)
	return errors.Wrap(err, "insert return request")
}

func (r *ReturnRepository) GetReturnByID(ctx context.Context, id uuid.UUID) (*domain.ReturnRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+returnColumns+` FROM mp.return_requests WHERE id = $1`, id)
	req, err := scanReturn(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get return request")
	}
	return req, nil
}

// UpdateStatus persists the new status with the full history document,
// guarded by the revision counter. Items never change after creation.
func (r *ReturnRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReturnStatus, history []domain.ReturnHistoryEntry, revision int64) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return errors.Wrap(err, "encode return history")
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE mp.return_requests
		 SET status = $1, history = $2, revision = revision + 1
		 WHERE id = $3 AND revision = $4`,
		string(status), raw, id, revision)
	if err != nil {
		return errors.Wrap(err, "update return status")
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("return request", id.String())
	}
	return nil
}

func (r *ReturnRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+returnColumns+` FROM mp.return_requests
		 WHERE lower(customer_email) = lower($1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, email, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list returns by email")
	}
	return collectReturns(rows)
}

func (r *ReturnRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.return_requests WHERE lower(customer_email) = lower($1)`, email).Scan(&n)
	return n, errors.Wrap(err, "count returns by email")
}

// Vendor listings match any request containing at least one of the vendor's
// items; the workflow layer decides what the vendor may do with it.
func (r *ReturnRepository) ListByVendor(ctx context.Context, vendorID, status string, limit, offset int) ([]domain.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+returnColumns+` FROM mp.return_requests
		 WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(items) e WHERE e->>'seller' = $1)
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`, vendorID, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list returns by vendor")
	}
	return collectReturns(rows)
}

func (r *ReturnRepository) CountByVendor(ctx context.Context, vendorID, status string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.return_requests
		 WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(items) e WHERE e->>'seller' = $1)
		   AND ($2 = '' OR status = $2)`, vendorID, status).Scan(&n)
	return n, errors.Wrap(err, "count returns by vendor")
}

func (r *ReturnRepository) ListAll(ctx context.Context, status, emailSearch string, limit, offset int) ([]domain.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+returnColumns+` FROM mp.return_requests
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR customer_email ILIKE '%' || $2 || '%')
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`, status, emailSearch, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list all returns")
	}
	return collectReturns(rows)
}

func (r *ReturnRepository) CountAll(ctx context.Context, status, emailSearch string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mp.return_requests
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR customer_email ILIKE '%' || $2 || '%')`, status, emailSearch).Scan(&n)
	return n, errors.Wrap(err, "count all returns")
}

func collectReturns(rows pgx.Rows) ([]domain.ReturnRequest, error) {
	defer rows.Close()

	out := []domain.ReturnRequest{}
	for rows.Next() {
		req, err := scanReturn(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan return request")
		}
		out = append(out, *req)
	}
	return out, errors.Wrap(rows.Err(), "return rows")
}

func scanReturn(row pgx.Row) (*domain.ReturnRequest, error) {
	var (
		req            domain.ReturnRequest
		status         string
		items, history []byte
	)
	err := row.Scan(&req.ID, &req.OrderID, &req.CustomerEmail, &items, &status,
		&req.Notes, &history, &req.Revision, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	req.Status = domain.ReturnStatus(status)
	if err := json.Unmarshal(items, &req.Items); err != nil {
		return nil, errors.Wrap(err, "decode return items")
	}
	if err := json.Unmarshal(history, &req.History); err != nil {
		return nil, errors.Wrap(err, "decode return history")
	}
	return &req, nil
}
