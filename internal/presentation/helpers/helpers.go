package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/logger"
)

func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func HttpError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// WriteError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is reported generically and logged in full.
func WriteError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		forbidden  *domain.AuthorizationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		HttpError(w, http.StatusBadRequest, validation.Msg)
	case errors.As(err, &forbidden):
		HttpError(w, http.StatusForbidden, forbidden.Msg)
	case errors.As(err, &notFound):
		HttpError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		HttpError(w, http.StatusConflict, conflict.Error())
	default:
		logger.Error("internal error", "err", err)
		HttpError(w, http.StatusInternalServerError, "internal error")
	}
}

// WritePage is the shared shape for paginated listings.
func WritePage(w http.ResponseWriter, items any, total, page, limit int) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
