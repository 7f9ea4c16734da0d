package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eskulia/eskulia-api/config"
	"github.com/eskulia/eskulia-api/data"
	"github.com/eskulia/eskulia-api/data/postgres"
	"github.com/eskulia/eskulia-api/handlers"
	"github.com/eskulia/eskulia-api/health"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/notifications"
	"github.com/eskulia/eskulia-api/registry"
	"github.com/eskulia/eskulia-api/registryparser"
	"github.com/eskulia/eskulia-api/scheduler"
	"github.com/eskulia/eskulia-api/server"
	"github.com/eskulia/eskulia-api/validation"
	"github.com/joho/godotenv"
)

// stores bundles the two store roles; both backends implement them on one type
type stores interface {
	interfaces.MedicineStore
	interfaces.TokenStore
}

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with error", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	status := data.NewStatus()
	status.SetServerStartTime(time.Now())
	if count, err := store.Count(ctx); err == nil {
		status.SetLastUpdated(time.Time{}, count)
	}

	dispatcher := notifications.NewDispatcher(newMessenger(ctx, cfg), cfg.NotifyWorkers, cfg.HTTPClientTimeout)
	parser := registryparser.NewRegistryParser(cfg.CSVURL, cfg.CSVDelimiter, cfg.ImportTimeout)

	sched, err := scheduler.NewScheduler(store, parser, status, scheduler.Options{
		Schedule:      cfg.ImportSchedule,
		Timeout:       cfg.ImportTimeout,
		ImportOnStart: cfg.ImportOnStart || status.GetRecordCount() == 0,
	})
	if err != nil {
		return fmt.Errorf("invalid IMPORT_SCHEDULE: %w", err)
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		Medicines:  store,
		Tokens:     store,
		Registry:   registry.NewClient(cfg.RegistrySearchURL, cfg.HTTPClientTimeout),
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Health:     health.NewHealthChecker(store, status, sched.NextRun),
		Status:     status,
		Validator:  validation.NewDataValidator(),
	})
	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects the configured backend. The returned *sql.DB is nil for the memory backend.
func openStore(ctx context.Context, cfg *config.Config) (stores, *sql.DB, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logging.Warn("Using in-memory store, device tokens will not survive a restart")
		return data.NewMemoryStore(), nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(connectCtx, cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.New(db, cfg.TableName)
	if err := store.Migrate(connectCtx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logging.Info("Connected to database", "host", cfg.DBHost, "database", cfg.DBName, "table", cfg.TableName)
	return store, db, nil
}

// newMessenger builds the push client when credentials are configured.
// Without one, notification sends answer 503 and everything else works.
func newMessenger(ctx context.Context, cfg *config.Config) notifications.Messenger {
	if cfg.FirebaseCredentialsFile == "" {
		logging.Warn("FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
		return nil
	}
	messenger, err := notifications.NewFCMMessenger(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
	if err != nil {
		logging.Error("Failed to initialise push provider, push notifications disabled", "error", err)
		return nil
	}
	return messenger
}
