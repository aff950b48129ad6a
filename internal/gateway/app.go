package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Encarte/internal/auth"
	"Encarte/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type GuardMode string

const (
	GuardSigned GuardMode = "signed"
	GuardMarker GuardMode = "marker"
)

type Deps struct {
	AuthURL    string
	CatalogURL string
	FlyerURL   string
	JWTSecret  string
	GuardMode  GuardMode
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

type upstream struct {
	name string
	url  string
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	authProxy, catalogProxy, flyerProxy, err := buildProxies(deps, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	guard, err := buildGuard(deps)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(upstreams(deps), httpDeps.Log))

	r.Group(func(pr chi.Router) {
		pr.Use(guard.Middleware)

		pr.Handle("/auth", authProxy)
		pr.Handle("/auth/*", authProxy)

		pr.Handle("/products", catalogProxy)
		pr.Handle("/refresh-products", catalogProxy)

		pr.Handle("/*", flyerProxy)
	})

	return r, nil
}

func buildGuard(deps Deps) (*Guard, error) {
	switch deps.GuardMode {
	case GuardMarker:
		return NewGuard(MarkerCheck{}), nil
	case GuardSigned, "":
		if deps.JWTSecret == "" {
			return nil, fmt.Errorf("signed guard mode needs a JWT secret")
		}
		return NewGuard(SignedSessionCheck{JWT: auth.NewTokenMaker(deps.JWTSecret)}), nil
	default:
		return nil, fmt.Errorf("unknown guard mode %q", deps.GuardMode)
	}
}

func buildProxies(deps Deps, log *zap.Logger) (authProxy, catalogProxy, flyerProxy http.Handler, err error) {
	ap, err := NewReverseProxy(deps.AuthURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	cp, err := NewReverseProxy(deps.CatalogURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	fp, err := NewReverseProxy(deps.FlyerURL, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return ap, cp, fp, nil
}

func upstreams(deps Deps) []upstream {
	return []upstream{
		{name: "auth", url: deps.AuthURL},
		{name: "catalog", url: deps.CatalogURL},
		{name: "flyer", url: deps.FlyerURL},
	}
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(ups []upstream, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for _, u := range ups {
			u := u
			g.Go(func() error {
				if err := checkReady(gctx, u.url+"/readyz"); err != nil {
					return &notReadyError{name: u.name, err: err}
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			msg := "upstream not ready"
			var nr *notReadyError
			if errors.As(err, &nr) {
				msg = nr.name + " not ready"
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, msg, nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

type notReadyError struct {
	name string
	err  error
}

func (e *notReadyError) Error() string { return e.name + ": " + e.err.Error() }
func (e *notReadyError) Unwrap() error { return e.err }

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
