package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

// recipientID is the key notifications are addressed to: customers by
// email, vendors and admins by user id.
func recipientID(id domain.Identity) string {
	if id.Role == domain.RoleCustomer && id.Email != "" {
		return id.Email
	}
	return id.UserID
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, _ := domain.IdentityFromContext(r.Context())
	page, limit := parsePage(r)

	items, total, err := h.notifs.ListMy(r.Context(), recipientID(id), page, limit)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WritePage(w, items, total, page, limit)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, _ := domain.IdentityFromContext(r.Context())

	count, err := h.notifs.UnreadCount(r.Context(), recipientID(id))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, _ := domain.IdentityFromContext(r.Context())
	notifID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifs.MarkRead(r.Context(), recipientID(id), notifID); err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	id, _ := domain.IdentityFromContext(r.Context())

	if err := h.notifs.MarkAllRead(r.Context(), recipientID(id)); err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
