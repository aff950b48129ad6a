package gateway

import (
	"net/http"
	"strings"

	"Encarte/internal/auth"
	"Encarte/pkg/kit"
)

type Access int

const (
	Public Access = iota
	Protected
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}
	return "protected"
}

const (
	LoginPath    = "/login"
	LegacyMarker = auth.LegacyMarkerCookie + "=" + auth.LegacyMarkerValue
)

var (
	defaultPublicPages = []string{
		"/login",
		"/signup",
		"/reset-password",
		"/auth/callback",
		"/encarte/public",
	}
	defaultPublicAPI = []string{
		"/auth/login",
		"/auth/signup",
		"/auth/logout",
		"/auth/reset-password",
		"/auth/callback",
		"/static",
	}
)

// Decision is the outcome for one request. Redirect is set only when Allow
// is false.
type Decision struct {
	Access   Access
	Allow    bool
	Redirect string
	Identity kit.Identity
}

type SessionCheck interface {
	Check(r *http.Request) (kit.Identity, bool)
}

// MarkerCheck trusts the literal isLoggedIn=true cookie. It is unsigned and
// only kept for deployments that have not moved to signed sessions.
type MarkerCheck struct{}

func (MarkerCheck) Check(r *http.Request) (kit.Identity, bool) {
	if !strings.Contains(r.Header.Get("Cookie"), LegacyMarker) {
		return kit.Identity{}, false
	}
	return kit.Identity{UserID: "legacy", Role: auth.RoleStaff}, true
}

type SignedSessionCheck struct {
	JWT *auth.TokenMaker
}

func (c SignedSessionCheck) Check(r *http.Request) (kit.Identity, bool) {
	tok, ok := auth.TokenFromRequest(r)
	if !ok {
		return kit.Identity{}, false
	}
	claims, err := c.JWT.Parse(tok)
	if err != nil {
		return kit.Identity{}, false
	}
	return kit.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}

type Guard struct {
	PublicPages []string
	PublicAPI   []string
	LoginPath   string
	Check       SessionCheck
}

func NewGuard(check SessionCheck) *Guard {
	return &Guard{
		PublicPages: defaultPublicPages,
		PublicAPI:   defaultPublicAPI,
		LoginPath:   LoginPath,
		Check:       check,
	}
}

func (g *Guard) Classify(path string) Access {
	if matchesAny(path, g.PublicPages) || matchesAny(path, g.PublicAPI) {
		return Public
	}
	return Protected
}

// Decide reads only what is already on the request; it never blocks.
func (g *Guard) Decide(r *http.Request) Decision {
	if g.Classify(r.URL.Path) == Public {
		return Decision{Access: Public, Allow: true}
	}
	if id, ok := g.Check.Check(r); ok {
		return Decision{Access: Protected, Allow: true, Identity: id}
	}
	return Decision{Access: Protected, Redirect: g.LoginPath}
}

// Middleware drops client-sent identity headers before deciding.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(kit.HeaderUserID)
		r.Header.Del(kit.HeaderUserEmail)
		r.Header.Del(kit.HeaderUserRole)

		d := g.Decide(r)
		if !d.Allow {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}

		if d.Identity.UserID != "" {
			r.Header.Set(kit.HeaderUserID, d.Identity.UserID)
			if d.Identity.Email != "" {
				r.Header.Set(kit.HeaderUserEmail, d.Identity.Email)
			}
			if d.Identity.Role != "" {
				r.Header.Set(kit.HeaderUserRole, d.Identity.Role)
			}
			r = r.WithContext(kit.WithIdentity(r.Context(), d.Identity))
		}
		next.ServeHTTP(w, r)
	})
}

// matchesAny is a segment-aware prefix match: "/login" covers "/login" and
// "/login/x" but not "/loginx".
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
