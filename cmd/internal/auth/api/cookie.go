package authapi

import (
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookieName carries the opaque session token.
	SessionCookieName = "session_id"

	clearedCookieValue = "invalid"
)

// Cookies encodes the session cookie. Secure is set in production only.
type Cookies struct {
	Secure bool
	MaxAge int
}

// NewCookies derives cookie attributes from the deployment mode and session TTL.
func NewCookies(production bool, ttl time.Duration) Cookies {
	return Cookies{Secure: production, MaxAge: int(ttl / time.Second)}
}

// EncodeSetCookie renders the Set-Cookie value for token:
// session_id=<token>; Path=/; Max-Age=<ttl>; HttpOnly[; Secure].
func (c Cookies) EncodeSetCookie(token string, ttlSeconds int) string {
	return c.cookie(token, ttlSeconds).String()
}

// EncodeClearCookie renders a Set-Cookie value that expires the session cookie now.
// net/http writes MaxAge<0 as Max-Age=0.
func (c Cookies) EncodeClearCookie() string {
	return c.cookie(clearedCookieValue, -1).String()
}

// SetSessionCookie appends the session cookie for token with the configured TTL.
func (c Cookies) SetSessionCookie(w http.ResponseWriter, token string) {
	w.Header().Add("Set-Cookie", c.EncodeSetCookie(token, c.MaxAge))
}

// ClearSessionCookie appends the expiring session cookie.
func (c Cookies) ClearSessionCookie(w http.ResponseWriter) {
	w.Header().Add("Set-Cookie", c.EncodeClearCookie())
}

func (c Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
	}
}

// ExtractToken returns the session_id cookie value. Missing or blank cookies are absent.
func ExtractToken(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}
