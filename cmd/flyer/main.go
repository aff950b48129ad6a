package main

import (
	"context"
	"crypto/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"Encarte/internal/flyer"
	"Encarte/pkg/kit"
)

func main() {
	kit.LoadDotEnv()

	service := "flyer"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8083")

	store, err := openStore(log)
	if err != nil {
		log.Fatal("open entry store failed", zap.Error(err))
	}

	pages, err := flyer.NewFormRenderer(
		flyer.NewCatalogClient(kit.Getenv("CATALOG_URL", "http://catalog:8082")), log)
	if err != nil {
		log.Fatal("parse templates failed", zap.Error(err))
	}

	s := &flyer.Server{Store: store, Pages: pages, Log: log}

	reg := prometheus.NewRegistry()
	h := flyer.NewHandler(s, flyer.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
		CSRFKey:        csrfKey(log),
		SecureCookies:  kit.GetenvBool("COOKIE_SECURE", false),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// csrfKey reads CSRF_KEY or generates a random one. A generated key does not
// survive restarts, so open forms stop validating after a deploy.
func csrfKey(log *zap.Logger) []byte {
	if k := os.Getenv("CSRF_KEY"); k != "" {
		if len(k) != 32 {
			log.Fatal("CSRF_KEY must be exactly 32 bytes")
		}
		return []byte(k)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatal("generate csrf key failed", zap.Error(err))
	}
	log.Warn("CSRF_KEY not set, using a random key")
	return key
}

func openStore(log *zap.Logger) (flyer.Store, error) {
	if url, key := os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"); url != "" && key != "" {
		client, err := supabase.NewClient(url, key, nil)
		if err != nil {
			return nil, err
		}
		log.Info("using supabase entry store")
		return flyer.NewSupabaseStore(client), nil
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := kit.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres entry store")
		return flyer.NewPostgresStore(db), nil
	}

	log.Warn("no database configured, entries are kept in memory")
	return flyer.NewMemStore(), nil
}
