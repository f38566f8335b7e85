package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseHandlers(t *testing.T) {
	app, _ := newTestApp(t, "owner")

	// Only the owner may pause.
	resp, body := doJSON(t, app, http.MethodPost, "/api/admin/pause", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_AUTHORIZED", body["code"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/pause", "owner", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["paused"])

	// Mutations are rejected while paused.
	resp, body = doJSON(t, app, http.MethodPost, "/api/posts", "alice",
		map[string]string{"content_ref": "cid-1"})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Equal(t, "CONTRACT_PAUSED", body["code"])

	// Reads still work while paused.
	resp, body = doJSON(t, app, http.MethodGet, "/api/ledger/status", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["paused"])
	assert.Equal(t, "owner", body["owner"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/unpause", "owner", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["paused"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/posts", "alice",
		map[string]string{"content_ref": "cid-1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestLedgerStatusHandler(t *testing.T) {
	app, _ := newTestApp(t, "owner")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/posts", "alice",
		map[string]string{"content_ref": "cid-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/ledger/status", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "owner", body["owner"])
	assert.Equal(t, false, body["paused"])
	assert.Equal(t, float64(1), body["total_posts"])
	assert.Equal(t, float64(1), body["sequence"])
}
