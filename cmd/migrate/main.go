package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	direction  = flag.String("direction", "up", "Migration direction: up, down or version")
	steps      = flag.Int("steps", 0, "Number of migrations to apply; 0 applies all (up) or one (down)")
	fromDisk   = flag.Bool("from-disk", false, "Read migrations from migrations_path instead of the embedded set")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadMigrateConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "migrate",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	var m *migrate.Migrate
	if *fromDisk {
		m, err = store.NewFileMigrator(cfg.MigrationsPath, cfg.Database.URL())
	} else {
		m, err = store.NewMigrator(cfg.Database.URL())
	}
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		_, _ = m.Close()
	}()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		err = m.Steps(-n)
	case "version":
	default:
		logger.Fatal("Unknown direction", zap.String("direction", *direction))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Migration failed", zap.Error(err), zap.String("direction", *direction))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("Failed to read schema version", zap.Error(err))
	}
	logger.Info("Schema migrated",
		zap.String("direction", *direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
}
