package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"Encarte/internal/catalog"
	"Encarte/pkg/kit"
)

func main() {
	kit.LoadDotEnv()

	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8082")

	sources, err := openSources(log)
	if err != nil {
		log.Fatal("open product sources failed", zap.Error(err))
	}
	if len(sources) == 0 {
		log.Fatal("no product source configured: set GOOGLE_SHEET_ID or PRODUCTS_XLSX")
	}

	defaultSource, ok := catalog.ParseSourceKind(kit.Getenv("PRODUCT_SOURCE", string(sources[0].Kind())))
	if !ok {
		log.Fatal("PRODUCT_SOURCE must be sheet or file")
	}

	reg := prometheus.NewRegistry()
	fetcher := catalog.NewFetcher(log, catalog.NewFetchMetrics(reg), sources...)
	if !fetcher.Has(defaultSource) {
		log.Fatal("PRODUCT_SOURCE is not configured", zap.String("source", string(defaultSource)))
	}

	s := &catalog.Server{
		Cache:         catalog.NewCache(fetcher, kit.GetenvDuration("PRODUCT_CACHE_TTL", 5*time.Minute), log),
		Fetcher:       fetcher,
		DefaultSource: defaultSource,
		Log:           log,
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openSources(log *zap.Logger) ([]catalog.Source, error) {
	var sources []catalog.Source

	if id := os.Getenv("GOOGLE_SHEET_ID"); id != "" {
		var opts []option.ClientOption
		switch {
		case os.Getenv("GOOGLE_CREDENTIALS_JSON") != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS_JSON"))))
		case os.Getenv("GOOGLE_CREDENTIALS_FILE") != "":
			opts = append(opts, option.WithCredentialsFile(os.Getenv("GOOGLE_CREDENTIALS_FILE")))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		src, err := catalog.NewSheetSource(ctx, id, os.Getenv("GOOGLE_SHEET_RANGE"), opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	path := kit.Getenv("PRODUCTS_XLSX", "data/produtos.xlsx")
	if _, err := os.Stat(path); err == nil {
		src, err := catalog.NewWorkbookSource(path, os.Getenv("PRODUCTS_XLSX_SHEET"))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	} else {
		log.Warn("products workbook not found", zap.String("path", path))
	}

	return sources, nil
}
