package application

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/logger"
	"github.com/sellora/marketplace-service/internal/metrics"
	"github.com/sellora/marketplace-service/internal/repository"
)

type AuditService struct {
	repo repository.AuditRepo
}

func NewAuditService(r repository.AuditRepo) *AuditService {
	return &AuditService{repo: r}
}

// Record persists an audit entry. It never reports failure to the caller:
// audit is diagnostic, not transactional with the mutation it describes.
func (s *AuditService) Record(ctx context.Context, e domain.AuditLogEntry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CorrelationID == "" {
		if meta := domain.MetaFromContext(ctx); meta.CorrelationID != "" {
			e.CorrelationID = meta.CorrelationID
		} else {
			e.CorrelationID = uuid.NewString()
		}
	}
	if e.IP == "" || e.UserAgent == "" {
		meta := domain.MetaFromContext(ctx)
		if e.IP == "" {
			e.IP = meta.IP
		}
		if e.UserAgent == "" {
			e.UserAgent = meta.UserAgent
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.AddEntry(ctx, &e); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Warn("audit write failed", "action", e.Action, "resource", e.ResourceID, "err", err)
	}
}

// List returns a page and the total count for the same filter; the two
// queries are independent reads and run concurrently.
func (s *AuditService) List(ctx context.Context, f domain.AuditFilter, page, limit int) ([]domain.AuditLogEntry, int, error) {
	limit, offset := pageBounds(page, limit)

	var (
		entries []domain.AuditLogEntry
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.List(gctx, f, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ExportCSV streams every entry matching the filter, paging internally.
func (s *AuditService) ExportCSV(ctx context.Context, f domain.AuditFilter, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "actor", "actor_role", "action", "resource_type", "resource_id",
		"before", "after", "correlation_id", "ip", "user_agent", "created_at",
	}); err != nil {
		return err
	}

	const batch = 500
	for offset := 0; ; offset += batch {
		entries, err := s.repo.List(ctx, f, batch, offset)
		if err != nil {
			return err
		}
		for _, e := range entries {
			before, _ := json.Marshal(e.Before)
			after, _ := json.Marshal(e.After)
			if err := cw.Write([]string{
				e.ID.String(), e.Actor, string(e.ActorRole), e.Action, e.ResourceType, e.ResourceID,
				string(before), string(after), e.CorrelationID, e.IP, e.UserAgent,
				e.CreatedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		if len(entries) < batch {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

// StartRetentionSweeper deletes entries older than the retention window,
// once at startup and then daily, until ctx is cancelled.
func (s *AuditService) StartRetentionSweeper(ctx context.Context, retentionDays int) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
			if n, err := s.repo.DeleteOlderThan(ctx, cutoff); err != nil {
				logger.Warn("audit retention sweep failed", "err", err)
			} else if n > 0 {
				logger.Info("audit retention sweep", "deleted", n, "cutoff", cutoff)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func pageBounds(page, limit int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
