package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/security"
)

func TestLoggingRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Logging(logger.FromZap(zap.New(core)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/streak", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/streak", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestIdentifyKeepsValidGuestCookie(t *testing.T) {
	m := NewMiddleware(security.NewTokenVerifier("secret", ""), nil, nil, logger.NewNop())
	var seen models.Identity
	handler := m.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
	}))

	guestID := security.GenerateGuestID()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: security.GuestCookieName, Value: guestID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, models.Identity{GuestID: guestID}, seen)
	assert.Empty(t, rec.Result().Cookies())

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: security.GuestCookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.NotEqual(t, "forged", seen.GuestID)
	assert.True(t, security.ValidGuestID(seen.GuestID))
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestGetIdentityWithoutMiddleware(t *testing.T) {
	assert.True(t, GetIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context()).IsGuest())
}
