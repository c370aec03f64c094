package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/domain"
)

type RateRepo interface {
	GetSetting(ctx context.Context, scope domain.RateScope, ownerID string, kind domain.RateKind) (*domain.RateSetting, error)
	UpsertSetting(ctx context.Context, s *domain.RateSetting) error
}

type RateRepository struct {
	pool *pgxpool.Pool
}

func NewRateRepository(p *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: p}
}

func (r *RateRepository) GetSetting(ctx context.Context, scope domain.RateScope, ownerID string, kind domain.RateKind) (*domain.RateSetting, error) {
	var (
		raw     []byte
		updated time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT rates, updated_at FROM mp.rate_settings
		 WHERE scope = $1 AND owner_id = $2 AND kind = $3`,
		string(scope), ownerID, string(kind)).Scan(&raw, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get rate setting")
	}

	rates := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, errors.Wrap(err, "decode rate set")
	}
	return &domain.RateSetting{
		Scope:   scope,
		OwnerID: ownerID,
		Kind:    kind,
		Rates:   rates,
		Updated: updated,
	}, nil
}

// UpsertSetting replaces the whole rate set atomically for the triple.
func (r *RateRepository) UpsertSetting(ctx context.Context, s *domain.RateSetting) error {
	raw, err := json.Marshal(s.Rates)
	if err != nil {
		return errors.Wrap(err, "encode rate set")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO mp.rate_settings (scope, owner_id, kind, rates, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (scope, owner_id, kind)
		 DO UPDATE SET rates = EXCLUDED.rates, updated_at = EXCLUDED.updated_at`,
		string(s.Scope), s.OwnerID, string(s.Kind), raw, s.Updated)
	return errors.Wrap(err, "upsert rate setting")
}
