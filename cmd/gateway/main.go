package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Encarte/internal/gateway"
	"Encarte/pkg/kit"
)

func main() {
	kit.LoadDotEnv()

	service := "gateway"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8080")
	mode := gateway.GuardMode(kit.Getenv("GUARD_MODE", string(gateway.GuardSigned)))

	jwtSecret := os.Getenv("JWT_SECRET")
	if mode == gateway.GuardSigned && len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}
	if mode == gateway.GuardMarker {
		log.Warn("guard running in marker mode, sessions are not verified")
	}

	deps := gateway.Deps{
		JWTSecret:  jwtSecret,
		AuthURL:    kit.Getenv("AUTH_URL", "http://auth:8081"),
		CatalogURL: kit.Getenv("CATALOG_URL", "http://catalog:8082"),
		FlyerURL:   kit.Getenv("FLYER_URL", "http://flyer:8083"),
		GuardMode:  mode,
	}

	reg := prometheus.NewRegistry()
	h, err := gateway.NewHandler(deps, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
