package application

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/repository"
)

// RateResolver resolves the effective tax percent or shipping amount for a
// (country, seller) pair: seller override, else platform default, else floor.
type RateResolver interface {
	Resolve(ctx context.Context, kind domain.RateKind, country, sellerID string) (decimal.Decimal, error)
}

type RatesService struct {
	repo   repository.RateRepo
	outbox Outbox
	audit  *AuditService
}

func NewRatesService(r repository.RateRepo, outbox Outbox, audit *AuditService) *RatesService {
	return &RatesService{repo: r, outbox: outbox, audit: audit}
}

// Resolve never fails on a missing configuration; the floor default always
// applies. Only storage errors surface.
func (s *RatesService) Resolve(ctx context.Context, kind domain.RateKind, country, sellerID string) (decimal.Decimal, error) {
	country = strings.ToUpper(strings.TrimSpace(country))

	if sellerID != "" {
		setting, err := s.repo.GetSetting(ctx, domain.ScopeVendor, sellerID, kind)
		if err != nil {
			return decimal.Zero, err
		}
		if setting != nil {
			if v, ok := setting.Rates[country]; ok {
				return v, nil
			}
		}
	}

	setting, err := s.repo.GetSetting(ctx, domain.ScopePlatform, "", kind)
	if err != nil {
		return decimal.Zero, err
	}
	if setting != nil {
		if v, ok := setting.Rates[country]; ok {
			return v, nil
		}
	}

	if kind == domain.RateShipping {
		return domain.FloorShipping, nil
	}
	return domain.FloorTax, nil
}

// Upsert replaces the whole rate set for the caller's scope. Vendors need
// the rates grant; admins write the platform scope.
func (s *RatesService) Upsert(ctx context.Context, id domain.Identity, kind domain.RateKind, rates map[string]decimal.Decimal) (*domain.RateSetting, error) {
	var scope domain.RateScope
	var owner string
	switch {
	case id.IsAdmin():
		scope, owner = domain.ScopePlatform, ""
	case id.IsVendor():
		if !id.VendorOK {
			return nil, domain.Forbiddenf("vendor account is not approved")
		}
		if !id.Permissions.Has(domain.PermManageRates) {
			return nil, domain.Forbiddenf("missing %s permission", domain.PermManageRates)
		}
		scope, owner = domain.ScopeVendor, id.UserID
	default:
		return nil, domain.Forbiddenf("role %s cannot manage rate settings", id.Role)
	}

	if len(rates) == 0 {
		return nil, domain.Validationf("rates must not be empty")
	}
	clamped := make(map[string]decimal.Decimal, len(rates))
	for country, v := range rates {
		country = strings.ToUpper(strings.TrimSpace(country))
		if country == "" {
			return nil, domain.Validationf("rate entry with empty country")
		}
		clamped[country] = domain.ClampRate(kind, v)
	}

	prev, err := s.repo.GetSetting(ctx, scope, owner, kind)
	if err != nil {
		return nil, err
	}

	setting := &domain.RateSetting{
		Scope:   scope,
		OwnerID: owner,
		Kind:    kind,
		Rates:   clamped,
		Updated: time.Now().UTC(),
	}
	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return nil, err
	}

	entry := domain.AuditLogEntry{
		Actor:        id.UserID,
		ActorRole:    id.Role,
		Action:       "rate_setting.upsert",
		ResourceType: "rate_setting",
		ResourceID:   string(scope) + ":" + owner + ":" + string(kind),
		After:        map[string]any{"rates": setting.Rates},
	}
	if prev != nil {
		entry.Before = map[string]any{"rates": prev.Rates}
	}
	meta := domain.MetaFromContext(ctx)
	s.outbox.Enqueue(Task{Kind: "audit", Run: func(taskCtx context.Context) error {
		s.audit.Record(domain.WithRequestMeta(taskCtx, meta), entry)
		return nil
	}})

	return setting, nil
}
