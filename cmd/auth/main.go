package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"Encarte/internal/auth"
	"Encarte/pkg/kit"
)

func main() {
	kit.LoadDotEnv()

	service := "auth"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8081")

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	store, err := openStore(log)
	if err != nil {
		log.Fatal("open user store failed", zap.Error(err))
	}

	s := &auth.Server{
		Log:   log,
		Store: store,
		JWT:   auth.NewTokenMaker(jwtSecret),
		Cookies: auth.CookieConfig{
			TTL:          kit.GetenvDuration("SESSION_TTL", auth.DefaultSessionTTL),
			Secure:       kit.GetenvBool("COOKIE_SECURE", false),
			Domain:       os.Getenv("COOKIE_DOMAIN"),
			LegacyMarker: kit.Getenv("GUARD_MODE", "signed") == "marker",
		},
	}

	reg := prometheus.NewRegistry()
	h := auth.NewHandler(s, auth.HTTPDeps{
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

func openStore(log *zap.Logger) (auth.UserStore, error) {
	if url, key := os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"); url != "" && key != "" {
		client, err := supabase.NewClient(url, key, nil)
		if err != nil {
			return nil, err
		}
		log.Info("using supabase user store")
		return auth.NewSupabaseStore(client), nil
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := kit.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres user store")
		return auth.NewPostgresStore(db), nil
	}

	log.Warn("no database configured, users are kept in memory")
	return auth.NewMemStore(), nil
}
