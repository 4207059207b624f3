package cmd

import (
	"fmt"

	"data-loader/core/config"
	"data-loader/core/database"
	"data-loader/core/extract"
	"data-loader/core/logger"
	"data-loader/core/metrics"
	"data-loader/core/storage"
	"data-loader/feature/jobs"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	storage storage.Client
	metrics *metrics.Recorder
}

// bootstrap loads the configuration, builds the logger and opens the
// database and storage client.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		metrics: metrics.NewRecorder(),
	}

	if cfg.Storage.Enabled() {
		if a.storage, err = storage.NewClient(cfg.Storage); err != nil {
			return nil, err
		}
	} else {
		log.Info("Object storage disabled, s3:// sources and report uploads are unavailable")
	}
	return a, nil
}

func (a *app) reader() extract.Reader {
	return extract.Reader{Storage: a.storage}
}

// service wires the job runner and service.
func (a *app) service() *jobs.Service {
	runner := jobs.NewRunner(a.db, a.reader(), a.cfg.Reconcile, a.log, a.metrics)
	publisher := &jobs.Publisher{
		Client: a.storage,
		Bucket: a.cfg.Storage.Bucket,
		Prefix: a.cfg.Storage.ReportPrefix,
	}
	return jobs.NewService(runner, a.db, a.reader(), a.cfg.Server.JobsDir, publisher, a.log)
}

func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
