package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.Load(getenv("CATALOG_CONFIG_FILE", "config.yaml"), ".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", zap.Stringer("config", &cfg))

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("open store failed", zap.Error(err), zap.String("driver", cfg.Store.Driver))
	}
	defer closeStore()

	if fs, ok := store.(*catalog.FileStore); ok {
		log.Info("catalog file store", zap.String("path", fs.Path()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &catalog.Server{
		Store: catalog.NewInstrumentedStore(store, reg),
		Log:   log,
	}
	if cfg.RateLimit.Writes > 0 {
		s.WriteLimit = kit.NewIPRateLimiter(cfg.RateLimit.Writes, cfg.RateLimit.Window).Middleware
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, cfg.HTTP.Addr, h, log, cfg.Shutdown.Timeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (catalog.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return catalog.NewMemStore(), func() {}, nil
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		ps := catalog.NewPostgresStore(db)
		if err := ps.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return ps, func() { _ = db.Close() }, nil
	default:
		return catalog.NewFileStore(cfg.Store.Path), func() {}, nil
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
