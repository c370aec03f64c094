package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is append-only and retained under a rolling TTL.
// Before/After are opaque snapshots of the mutated resource.
type AuditLogEntry struct {
	ID            uuid.UUID      `json:"id"`
	Actor         string         `json:"actor"`
	ActorRole     Role           `json:"actor_role"`
	Action        string         `json:"action"`
	ResourceType  string         `json:"resource_type"`
	ResourceID    string         `json:"resource_id"`
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	IP            string         `json:"ip,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AuditFilter narrows audit listings; zero values mean "any".
type AuditFilter struct {
	Action       string
	ResourceType string
	ResourceID   string
	ActorRole    string
	Actor        string
	From         time.Time
	To           time.Time
}
