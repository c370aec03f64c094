package presentation

import (
	"net/http"
	"time"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

func auditFilterFromQuery(r *http.Request) domain.AuditFilter {
	q := r.URL.Query()
	f := domain.AuditFilter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		ActorRole:    q.Get("actor_role"),
		Actor:        q.Get("actor"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = t
		}
	}
	return f
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePage(r)

	entries, total, err := h.audit.List(r.Context(), auditFilterFromQuery(r), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, entries, total, page, limit)
}

func (h *Handler) ExportAudit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-log.csv"`)

	if err := h.audit.ExportCSV(r.Context(), auditFilterFromQuery(r), w); err != nil {
		// Headers may already be out; nothing more useful to send.
		helpers.WriteError(w, err)
	}
}
