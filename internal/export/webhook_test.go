package export_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tewans-kitchen/pos/internal/auth"
	"github.com/tewans-kitchen/pos/internal/export"
)

func TestWebhookExporter_SignsBody(t *testing.T) {
	var (
		gotBody   []byte
		gotHeader http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := export.NewWebhookExporter(srv.URL, "hook-secret", time.Minute, srv.Client())
	p := export.NewPayload(testTransaction(1))
	require.NoError(t, e.Export(context.Background(), p))

	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, p.ID, gotHeader.Get("Idempotency-Key"))
	assert.Contains(t, string(gotBody), `"total":"117.00"`)

	authz := gotHeader.Get("Authorization")
	require.True(t, strings.HasPrefix(authz, "Bearer "), "got %q", authz)
	claims, err := auth.ValidateToken("hook-secret", strings.TrimPrefix(authz, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.TransactionID)
	assert.Equal(t, 3, claims.TableID)
	assert.NoError(t, claims.VerifyBody(gotBody))
}

func TestWebhookExporter_NoSecretNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := export.NewWebhookExporter(srv.URL, "", 0, nil)
	assert.NoError(t, e.Export(context.Background(), export.NewPayload(testTransaction(1))))
	assert.Equal(t, "webhook", e.Name())
}

func TestWebhookExporter_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sheet locked", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := export.NewWebhookExporter(srv.URL, "s", 0, srv.Client())
	err := e.Export(context.Background(), export.NewPayload(testTransaction(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, export.ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "503")
}
