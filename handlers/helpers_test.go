package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: fmt.Errorf("GetBracket: %w", services.ErrNotFound), status: http.StatusNotFound},
		{name: "invalid state", err: services.ErrInvalidState, status: http.StatusConflict},
		{name: "validation", err: services.ErrValidationFailed, status: http.StatusUnprocessableEntity},
		{name: "unknown", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "disk on fire")
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		WinnerID int `json:"winner_id"`
	}
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"winner_id": 4}`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "syntax", body: `{"winner_id": }`, wantErr: "badly-formed"},
		{name: "wrong type", body: `{"winner_id": "four"}`, wantErr: "incorrect JSON type"},
		{name: "unknown key", body: `{"loser_id": 4}`, wantErr: "unknown key"},
		{name: "two values", body: `{"winner_id": 4}{}`, wantErr: "single JSON value"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst payload
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 4, dst.WinnerID)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReadOptionalJSON_EmptyBody(t *testing.T) {
	var dst services.ConfirmInput
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, readOptionalJSON(httptest.NewRecorder(), req, &dst))
	assert.Empty(t, dst.Notes)
}

func TestGetIDFromURL(t *testing.T) {
	testCases := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "12", want: 12},
		{value: "", wantErr: true},
		{value: "abc", wantErr: true},
		{value: "0", wantErr: true},
		{value: "-5", wantErr: true},
	}
	for _, tc := range testCases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("bracketID", tc.value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		got, err := getIDFromURL(req, "bracketID")
		if tc.wantErr {
			assert.Error(t, err, "value %q", tc.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://scores.example"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "https://scores.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(failingPinger{}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(failingPinger{err: errors.New("down")}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
