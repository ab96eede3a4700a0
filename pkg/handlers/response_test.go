package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internmatch/internmatch-engine/pkg/apperrors"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"invalid transition", apperrors.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"invalid state", apperrors.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{"invalid argument", apperrors.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"invalid role", apperrors.ErrInvalidRole, http.StatusBadRequest, "invalid_argument"},
		{"invalid rating", apperrors.ErrInvalidRating, http.StatusBadRequest, "invalid_argument"},
		{"scoring unavailable", apperrors.ErrScoringUnavailable, http.StatusServiceUnavailable, "scoring_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			// Services hand back wrapped errors, never the sentinel itself.
			wrapped := fmt.Errorf("operation failed: %w", tt.err)
			require.NoError(t, WriteServiceError(rec, wrapped))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Contains(t, body["message"], "operation failed")
		})
	}
}

func TestWriteServiceErrorOpaqueInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteServiceError(rec, errors.New("pq: connection refused to db 10.0.0.3")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
	// Internal detail must not leak to the client.
	assert.Equal(t, "Internal server error", body["message"])
}

func TestQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/applications?limit=10&offset=junk&with_scores=true&fast=0", nil)

	assert.Equal(t, 10, queryInt(r, "limit", 50))
	assert.Equal(t, 0, queryInt(r, "offset", 0))
	assert.Equal(t, 50, queryInt(r, "missing", 50))
	assert.True(t, queryBool(r, "with_scores"))
	assert.False(t, queryBool(r, "fast"))
	assert.False(t, queryBool(r, "missing"))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/applications/7", nil)
	r.SetPathValue("id", "7")

	id, err := pathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for _, raw := range []string{"", "abc", "0", "-4"} {
		r := httptest.NewRequest(http.MethodGet, "/api/applications/x", nil)
		r.SetPathValue("id", raw)
		_, err := pathID(r, "id")
		assert.Error(t, err, "raw=%q", raw)
	}
}
