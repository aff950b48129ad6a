package flyer

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// CSRFKey must be 32 bytes. SecureCookies should be on behind TLS.
	CSRFKey       []byte
	SecureCookies bool
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
		if deps.MetricsEnabled {
			r.With(kit.MetricsAuth(deps.MetricsToken)).
				Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/login", s.loginPage)
	r.Get("/signup", s.signupPage)
	r.Get("/reset-password", s.resetPage)
	r.Get("/encarte/public", s.public)

	r.Group(func(pr chi.Router) {
		pr.Use(kit.RequireIdentityHeaders)

		pr.Get("/", s.index)

		pr.Post("/flyer/items", s.createItem)
		pr.Get("/flyer/items", s.listItems)
		pr.Delete("/flyer/items/{id}", s.deleteItem)

		pr.Group(func(fr chi.Router) {
			fr.Use(markPlaintext)
			fr.Use(csrf.Protect(deps.CSRFKey,
				csrf.Secure(deps.SecureCookies),
				csrf.Path("/"),
				csrf.SameSite(csrf.SameSiteLaxMode),
			))

			fr.Get("/flyer/{category}/new", s.newForm)
			fr.Post("/flyer/{category}", s.submitForm)
			fr.Post("/flyer/items/{id}/delete", s.deleteForm)
			fr.Get("/admin", s.admin)
		})
	})

	return r
}

// markPlaintext skips csrf's TLS-only Referer check for plain HTTP requests.
func markPlaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}
