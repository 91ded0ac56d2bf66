package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/lockdown"
	"guardian/internal/lockdown/store"
	"guardian/pkg/testutil"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := lockdown.New(store.NewInMemory(),
		lockdown.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return r
}

func TestLockdownLifecycle(t *testing.T) {
	router := newRouter(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rr := testutil.DoRequest(router, testutil.AtTime(testutil.NewRequest(t, http.MethodGet, "/wallets/wallet-1/lockdown"), now))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "locked", false)

	rr = testutil.DoRequest(router, testutil.AtTime(testutil.NewJSONRequest(t, http.MethodPost, "/wallets/wallet-1/lockdown",
		map[string]string{"duration": "2h", "reason": " fraud_report "}), now))
	testutil.AssertStatusOK(t, rr)
	status := testutil.UnmarshalResponse[lockdown.Status](t, rr)
	assert.True(t, status.Locked)
	assert.True(t, status.Manual)
	assert.Equal(t, "fraud_report", status.Reason)
	require.NotNil(t, status.LockedUntil)
	assert.True(t, now.Add(2*time.Hour).Equal(*status.LockedUntil))

	rr = testutil.DoRequest(router, testutil.AtTime(testutil.NewRequest(t, http.MethodGet, "/wallets/wallet-1/lockdown"), now.Add(time.Hour)))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "locked", true)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/wallets/wallet-1/lockdown"))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.AtTime(testutil.NewRequest(t, http.MethodGet, "/wallets/wallet-1/lockdown"), now.Add(time.Hour)))
	testutil.AssertJSONContains(t, rr, "locked", false)
}

func TestLockWithoutDurationHoldsUntilCleared(t *testing.T) {
	router := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/wallets/wallet-1/lockdown", map[string]string{}))
	testutil.AssertStatusOK(t, rr)
	status := testutil.UnmarshalResponse[lockdown.Status](t, rr)
	assert.Nil(t, status.LockedUntil)
	assert.Equal(t, lockdown.ReasonManual, status.Reason)
}

func TestLockRejectsBadInput(t *testing.T) {
	router := newRouter(t)
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unparseable duration", "/wallets/wallet-1/lockdown", map[string]string{"duration": "soon"}, http.StatusBadRequest, "bad_request"},
		{"negative duration", "/wallets/wallet-1/lockdown", map[string]string{"duration": "-1h"}, http.StatusBadRequest, "validation_error"},
		{"duration over a year", "/wallets/wallet-1/lockdown", map[string]string{"duration": "9000h"}, http.StatusBadRequest, "validation_error"},
		{"invalid wallet", "/wallets/bad%20wallet/lockdown", map[string]string{}, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, tt.path, tt.body))
			testutil.AssertStatusAndError(t, rr, tt.status, tt.code)
		})
	}
}
