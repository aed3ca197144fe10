package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GuestCookieName holds the guest identity of anonymous players.
const GuestCookieName = "guest_id"

// GuestCookieTTL matches how long guest streaks are kept.
const GuestCookieTTL = 90 * 24 * time.Hour

// GenerateGuestID creates a new UUID for a guest
func GenerateGuestID() string {
	return uuid.New().String()
}

// ValidGuestID reports whether id is a UUID we could have issued.
func ValidGuestID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GuestID returns the guest id from the request cookie, or "" if absent or invalid.
func GuestID(r *http.Request) string {
	cookie, err := r.Cookie(GuestCookieName)
	if err != nil || !ValidGuestID(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateGuestCookie creates the guest cookie with proper security flags
func CreateGuestCookie(r *http.Request, guestID string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     GuestCookieName,
		Value:    guestID,
		Path:     "/",
		Expires:  now.Add(GuestCookieTTL),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie creates a cookie for deletion with proper security flags
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}
