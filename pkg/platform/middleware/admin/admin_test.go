package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"paddock/pkg/testutil"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("configured token", func(t *testing.T) {
		h := RequireAdminToken("s3cret", logger)(ok)

		t.Run("matching header passes", func(t *testing.T) {
			req := testutil.WithAdminToken(httptest.NewRequest(http.MethodDelete, "/api/race/1", nil), "s3cret")
			rr := testutil.DoRequest(h, req)
			assert.Equal(t, http.StatusNoContent, rr.Code)
		})

		t.Run("wrong header is rejected", func(t *testing.T) {
			req := testutil.WithAdminToken(httptest.NewRequest(http.MethodDelete, "/api/race/1", nil), "guess")
			testutil.AssertStatusAndError(t, testutil.DoRequest(h, req), http.StatusUnauthorized, "unauthorized")
		})

		t.Run("missing header is rejected", func(t *testing.T) {
			rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodDelete, "/api/race/1", nil))
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	t.Run("no configured token lets every request pass", func(t *testing.T) {
		h := RequireAdminToken("", logger)(ok)
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodPost, "/api/result", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
