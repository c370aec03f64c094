package helpers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitDevelopment()
	os.Exit(m.Run())
}

func TestWriteErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validationf("bad input"), http.StatusBadRequest},
		{domain.Forbiddenf("nope"), http.StatusForbidden},
		{domain.NotFound("order", "o-1"), http.StatusNotFound},
		{domain.Conflict("order", "o-1"), http.StatusConflict},
		{errors.New("db exploded"), http.StatusInternalServerError},
		// Wrapped taxonomy errors still map through errors.As.
		{errors.Wrap(domain.NotFound("product", "p-1"), "checkout"), http.StatusNotFound},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, "err %v", tc.err)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}

	// Internal details never leak to the client.
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(strings.NewReader(`{"name":"x","bogus":1}`), &dst)
	assert.Error(t, err)

	err = DecodeJSON(strings.NewReader(`{"name":"x"}`), &dst)
	require.NoError(t, err)
	assert.Equal(t, "x", dst.Name)
}

func TestWritePageShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePage(rec, []string{"a", "b"}, 42, 2, 20)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"total":42`)
	assert.Contains(t, body, `"page":2`)
	assert.Contains(t, body, `"limit":20`)
	assert.Contains(t, body, `"items":["a","b"]`)
}
