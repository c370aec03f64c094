package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/marketplace-service/internal/domain"
)

func TestRecordFillsDefaults(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo)

	svc.Record(context.Background(), domain.AuditLogEntry{
		Actor:  "a1",
		Action: "order.created",
	})

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.NotEmpty(t, e.ID)
	assert.NotEmpty(t, e.CorrelationID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecordUsesRequestMeta(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo)

	ctx := domain.WithRequestMeta(context.Background(), domain.RequestMeta{
		IP:            "10.0.0.1",
		UserAgent:     "curl/8",
		CorrelationID: "req-42",
	})
	svc.Record(ctx, domain.AuditLogEntry{Action: "return.created"})

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, "req-42", e.CorrelationID)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Equal(t, "curl/8", e.UserAgent)
}

func TestRecordSwallowsStorageFailure(t *testing.T) {
	repo := &fakeAuditRepo{failAdd: true}
	svc := NewAuditService(repo)

	// Must not panic or surface the error anywhere.
	svc.Record(context.Background(), domain.AuditLogEntry{Action: "order.created"})
	assert.Empty(t, repo.entries)
}

func TestListFiltersAndCounts(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo)
	ctx := context.Background()

	svc.Record(ctx, domain.AuditLogEntry{Action: "order.created", ResourceType: "order"})
	svc.Record(ctx, domain.AuditLogEntry{Action: "return.created", ResourceType: "return_request"})
	svc.Record(ctx, domain.AuditLogEntry{Action: "order.created", ResourceType: "order"})

	entries, total, err := svc.List(ctx, domain.AuditFilter{Action: "order.created"}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, total)
}

func TestExportCSV(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo)
	ctx := context.Background()

	svc.Record(ctx, domain.AuditLogEntry{
		Actor:        "admin@example.com",
		ActorRole:    domain.RoleAdmin,
		Action:       "order.status_changed",
		ResourceType: "order",
		ResourceID:   "o-1",
		Before:       map[string]any{"status": "Pending"},
		After:        map[string]any{"status": "Shipped"},
	})

	var sb strings.Builder
	require.NoError(t, svc.ExportCSV(ctx, domain.AuditFilter{}, &sb))

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,actor,actor_role,action"))
	assert.Contains(t, lines[1], "order.status_changed")
	assert.Contains(t, lines[1], "Shipped")
}

func TestRetentionSweep(t *testing.T) {
	repo := &fakeAuditRepo{entries: []domain.AuditLogEntry{
		{Action: "old", CreatedAt: time.Now().UTC().AddDate(0, 0, -400)},
		{Action: "fresh", CreatedAt: time.Now().UTC()},
	}}

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now().UTC().AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "fresh", repo.entries[0].Action)
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(1, 20)
	assert.Equal(t, 20, limit)
	assert.Zero(t, offset)

	limit, offset = pageBounds(3, 10)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	limit, _ = pageBounds(0, 0)
	assert.Equal(t, 20, limit)

	limit, _ = pageBounds(1, 1000)
	assert.Equal(t, 20, limit)
}
