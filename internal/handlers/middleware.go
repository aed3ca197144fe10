package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	limiter  *security.RateLimiter
	admins   map[string]bool
	log      *logger.Logger
	now      func() time.Time
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(verifier *security.TokenVerifier, limiter *security.RateLimiter, adminUserIDs []string, log *logger.Logger) *Middleware {
	admins := make(map[string]bool, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = true
	}
	return &Middleware{verifier: verifier, limiter: limiter, admins: admins, log: log, now: time.Now}
}

// Identify resolves the request identity. A bearer token must be valid; a
// request without one is a guest, and a guest without a cookie gets a new id.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := models.Identity{GuestID: security.GuestID(r)}

		if header := r.Header.Get("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
				return
			}
			userID, err := m.verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "Rejected bearer token", err)
				return
			}
			identity.UserID = userID
		} else if identity.GuestID == "" {
			identity.GuestID = security.GenerateGuestID()
			http.SetCookie(w, security.CreateGuestCookie(r, identity.GuestID, m.now()))
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects guests
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()).IsGuest() {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}
		next(w, r)
	}
}

// RequireAdmin allows only configured admin users
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if !m.admins[identity.UserID] {
			m.log.Warn("Admin route refused", "user", identity.UserID, "path", r.URL.Path)
			respondWithError(w, m.log, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	})
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String())
		})
	}
}

// GetIdentity retrieves the identity from the request context
func GetIdentity(ctx context.Context) models.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(models.Identity)
	return identity
}
