package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sellora/marketplace-service/internal/domain"
)

// Catalog is the read-only product lookup used for seller attribution.
// Catalog CRUD belongs to another service; this is its projection.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(p *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: p}
}

func (r *ProductRepository) ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, seller_id, price FROM mp.products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "products by ids")
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Seller, &p.Price); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "product rows")
	}
	return out, nil
}
