package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName = "session"

	// LegacyMarkerCookie is the unsigned flag older pages still look for.
	LegacyMarkerCookie = "isLoggedIn"
	LegacyMarkerValue  = "true"

	DefaultSessionTTL = 12 * time.Hour
)

type CookieConfig struct {
	TTL    time.Duration
	Secure bool
	Domain string

	// LegacyMarker also writes isLoggedIn=true for the marker guard mode.
	LegacyMarker bool
}

func (c CookieConfig) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultSessionTTL
	}
	return c.TTL
}

func (c CookieConfig) Set(w http.ResponseWriter, token string) {
	maxAge := int(c.ttl().Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if c.LegacyMarker {
		http.SetCookie(w, &http.Cookie{
			Name:     LegacyMarkerCookie,
			Value:    LegacyMarkerValue,
			Path:     "/",
			Domain:   c.Domain,
			MaxAge:   maxAge,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c CookieConfig) Clear(w http.ResponseWriter) {
	for _, name := range []string{SessionCookieName, LegacyMarkerCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   c.Domain,
			MaxAge:   -1,
			HttpOnly: name == SessionCookieName,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// TokenFromRequest prefers the session cookie over a bearer header.
func TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && tok != "" {
		return tok, true
	}
	return "", false
}
