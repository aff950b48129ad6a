package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

const fetchTimeout = 15 * time.Second

type Server struct {
	Cache         *Cache
	Fetcher       *Fetcher
	DefaultSource SourceKind
	Log           *zap.Logger
}

type productsResp struct {
	Products  []Product  `json:"products"`
	Source    SourceKind `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
	Stale     bool       `json:"stale"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.mount(r)
	return r
}

func (s *Server) mount(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.list)
	r.Get("/refresh-products", s.refresh)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.Fetcher != nil && !s.Fetcher.Has(s.DefaultSource) {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", map[string]any{
			"source": s.DefaultSource,
		})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, s.Cache.Products)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, s.Cache.Refresh)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, load func(context.Context, SourceKind) (Snapshot, error)) {
	kind, ok := s.sourceFromQuery(r)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "unknown source", map[string]any{
			"source": r.URL.Query().Get("source"),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	snap, err := load(ctx, kind)
	if err != nil {
		s.logger().Error("load products failed", zap.String("source", string(kind)), zap.Error(err))
		msg, cause := describeFailure(err)
		kit.WriteFailure(w, r, http.StatusInternalServerError, msg, cause)
		return
	}

	kit.WriteJSON(w, http.StatusOK, productsResp{
		Products:  snap.Products,
		Source:    snap.Source,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale,
	})
}

func (s *Server) sourceFromQuery(r *http.Request) (SourceKind, bool) {
	raw := r.URL.Query().Get("source")
	if raw == "" {
		return s.DefaultSource, true
	}
	return ParseSourceKind(raw)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func describeFailure(err error) (string, error) {
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Err != nil {
			return fe.Message, fe.Err
		}
		return fe.Message, fe
	}
	return "could not load products", err
}
