package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mindscreen/mindscreen/internal/api"
	"github.com/mindscreen/mindscreen/internal/config"
	dbstore "github.com/mindscreen/mindscreen/internal/db"
	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/middleware"
	"github.com/mindscreen/mindscreen/internal/model"
	"github.com/mindscreen/mindscreen/internal/reslog"
	"github.com/mindscreen/mindscreen/internal/utils"
	"github.com/mindscreen/mindscreen/pkg/logger"
	"github.com/mindscreen/mindscreen/pkg/metrics"
)

func main() {
	ctx := context.Background()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Named("server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(ctx, "load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Fatal(ctx, "set log level", logger.Error(err))
	}
	if cfg.JWTSecret != "" {
		middleware.SetSecret(cfg.JWTSecret)
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatal(ctx, "open store", logger.Error(err))
	}
	defer cleanup()

	sink := reslog.New(cfg.ResultLogPath)
	handles := discoverModels(cfg.ModelDir)
	for id := range handles {
		log.Info(ctx, "classifier artifact configured", logger.String("instrument", string(id)))
	}

	m := metrics.NewManager()

	mux := http.NewServeMux()
	api.NewRouter(api.Options{
		Store:             store,
		Sink:              sink,
		Models:            handles,
		Metrics:           m,
		ExportMinInterval: cfg.ExportMinInterval(),
	}).Register(mux)

	commit := os.Getenv("MINDSCREEN_COMMIT")
	buildTime := os.Getenv("MINDSCREEN_BUILD_TIME")

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"name":   "MindScreen API",
			"locale": locale,
			"msg":    utils.T(locale, "health.ok"),
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.Handle("/metrics", m.Handler())

	handler := middleware.NoStore(
		middleware.SecureHeaders(
			middleware.CORS(
				middleware.LocaleMiddleware(
					middleware.WithAuth(
						m.Instrument(mux))))))

	log.Info(ctx, "listening", logger.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal(ctx, "server error", logger.Error(err))
	}
}

func openStore(cfg *config.Config) (api.Store, func(), error) {
	if cfg.MemStore {
		return api.NewMemoryStore(), func() {}, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(cfg.DBPath))
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := dbstore.RunMigrations(conn, cfg.MigrationsDir); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewSQLiteStore(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	return store, func() { _ = conn.Close() }, nil
}

// discoverModels looks for one artifact per instrument under dir, named
// <instrument>.json. Artifacts are loaded lazily on first use; a missing
// file only fails the instruments that reference it.
func discoverModels(dir string) map[instrument.ID]*model.Handle {
	if dir == "" {
		return nil
	}
	handles := map[instrument.ID]*model.Handle{}
	for _, def := range instrument.All() {
		path := filepath.Join(dir, string(def.ID)+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		labels := make([]string, 0, len(def.Bands))
		for _, b := range def.Bands {
			labels = append(labels, def.Label(b.Severity))
		}
		handles[def.ID] = model.NewHandle(path, labels)
	}
	return handles
}
