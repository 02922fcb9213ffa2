package common

import (
	"context"
	"log"
	"strings"

	"payments-service/internal/config"
	"payments-service/internal/database"
	"payments-service/internal/events"
	"payments-service/internal/models"
	"payments-service/internal/payments"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export or docker,
	// so a missing .env file is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}
}

type Services struct {
	Config     *models.Config
	DbService  *database.Service
	Payments   *payments.Service
	Publisher  events.Publisher
	Dispatcher *events.Dispatcher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices builds the full service graph: config, database,
// payments core, event publisher and outbox dispatcher.
func InitializeServices(ctx context.Context) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	paymentsService := payments.NewService(dbService, cfg.Retry, cfg.Events.Topic)

	var publisher events.Publisher
	if cfg.Events.KafkaEnabled {
		publisher, err = events.NewKafkaPublisher(cfg.Events.KafkaBrokers)
		if err != nil {
			dbService.Close()
			return nil, err
		}
	} else {
		publisher = events.NewLogPublisher()
	}

	dispatcher := events.NewDispatcher(dbService, publisher, cfg.Events)

	return &Services{
		Config:     cfg,
		DbService:  dbService,
		Payments:   paymentsService,
		Publisher:  publisher,
		Dispatcher: dispatcher,
	}, nil
}

func (cs *Services) Close() {
	if cs.Publisher != nil {
		if err := cs.Publisher.Close(); err != nil {
			zap.L().Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
