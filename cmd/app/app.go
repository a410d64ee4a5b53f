package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventdesk/eventdesk-api/internal/api"
	"github.com/eventdesk/eventdesk-api/internal/config"
	"github.com/eventdesk/eventdesk-api/internal/db"
	"github.com/eventdesk/eventdesk-api/internal/logger"
	"github.com/eventdesk/eventdesk-api/internal/pkg/storage"
	"github.com/eventdesk/eventdesk-api/internal/pkg/storage/minio"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = conf.Postgres.URL()
	}

	if conf.Postgres.Migrate {
		if err = db.RunMigrations(dbURL); err != nil {
			return fmt.Errorf("failed to run migrations -> %w", err)
		}
	}

	var postgresDB *gorm.DB
	postgresDB, err = db.OpenPostgresWithURL(dbURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	var objectStorage storage.Service
	if conf.Storage.Enabled() {
		objectStorage, err = minio.New(context.Background(), minio.Config{
			Endpoint:  conf.Storage.Endpoint,
			AccessKey: conf.Storage.AccessKey,
			SecretKey: conf.Storage.SecretKey,
			Bucket:    conf.Storage.Bucket,
			Region:    conf.Storage.Region,
			UseSSL:    conf.Storage.UseSSL,
			PublicURL: conf.Storage.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize object storage -> %w", err)
		}
		zap.L().Info("object storage enabled", zap.String("bucket", conf.Storage.Bucket))
	}

	s := api.NewServer(conf, postgresDB, objectStorage)
	defer s.Close()

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
