package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

var ErrUnknownSource = errors.New("unknown product source")

// FetchError is the failure result of a fetch. Message is safe to show to
// staff; Err carries the cause.
type FetchError struct {
	Source  SourceKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Fetcher struct {
	sources map[SourceKind]Source
	metrics *FetchMetrics
	log     *zap.Logger
}

func NewFetcher(log *zap.Logger, metrics *FetchMetrics, sources ...Source) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{
		sources: make(map[SourceKind]Source, len(sources)),
		metrics: metrics,
		log:     log,
	}
	for _, s := range sources {
		if s != nil {
			f.sources[s.Kind()] = s
		}
	}
	return f
}

func (f *Fetcher) Has(kind SourceKind) bool {
	_, ok := f.sources[kind]
	return ok
}

func (f *Fetcher) Kinds() []SourceKind {
	out := make([]SourceKind, 0, len(f.sources))
	for k := range f.sources {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fetch makes one attempt against the selected source. Any failure comes
// back as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, kind SourceKind) ([]Product, error) {
	src, ok := f.sources[kind]
	if !ok {
		return nil, &FetchError{
			Source:  kind,
			Message: fmt.Sprintf("product source %q is not configured", kind),
			Err:     ErrUnknownSource,
		}
	}

	start := time.Now()
	rows, err := src.Rows(ctx)
	f.metrics.observe(kind, time.Since(start), err)
	if err != nil {
		f.log.Warn("product fetch failed", zap.String("source", string(kind)), zap.Error(err))
		return nil, &FetchError{
			Source:  kind,
			Message: fetchMessage(kind),
			Err:     err,
		}
	}

	products := BuildList(rows)
	f.metrics.setCount(kind, len(products))
	f.log.Debug("products fetched",
		zap.String("source", string(kind)),
		zap.Int("rows", len(rows)),
		zap.Int("products", len(products)),
	)
	return products, nil
}

func fetchMessage(kind SourceKind) string {
	switch kind {
	case SourceSheet:
		return "could not read products from the Google Sheet"
	case SourceFile:
		return "could not read products from the bundled spreadsheet"
	default:
		return "could not read products"
	}
}
