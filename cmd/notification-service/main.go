// cmd/notification-service/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/database"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/notification/application"
	"storefront/internal/service/notification/infrastructure"
	"storefront/internal/service/notification/interfaces"
)

const serviceName = "notification-service"

func main() {
	cfg, err := bootstrap.LoadConfig(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		Config:           cfg,
		RegisterHandlers: registerHandlers,
	})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("notification-service exited")
	}
}

func registerHandlers(app *bootstrap.AppCtx) error {
	cfg := app.Config

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	app.OnShutdown("database", func(context.Context) error { return database.Close(db) })
	if cfg.App.AutoMigrate {
		if err := db.AutoMigrate(infrastructure.Models()...); err != nil {
			return fmt.Errorf("migrate notifications: %w", err)
		}
	}

	hub := infrastructure.NewHub()
	app.Go("websocket hub", hub.Run)

	svc := application.NewNotificationService(infrastructure.NewGormNotificationRepository(db), hub, otel.Tracer(serviceName))

	if len(cfg.Kafka.Brokers) > 0 {
		reader := mq.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		app.OnShutdown("kafka reader", func(context.Context) error { return reader.Close() })
		app.Go("order event consumer", infrastructure.NewOrderEventConsumer(reader, svc).Run)
	} else {
		logger.L().Warn().Msg("kafka.brokers not set, no order events will be consumed")
	}

	interfaces.NewNotificationHandler(svc, hub, auth.NewVerifier(cfg.Security.JWTSecret)).RegisterRoutes(app)
	return nil
}
