// cmd/order-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/database"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	catalogapp "storefront/internal/service/catalog/application"
	cataloginfra "storefront/internal/service/catalog/infrastructure"
	catalogapi "storefront/internal/service/catalog/interfaces"
	"storefront/internal/service/order/application"
	orderinfra "storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/infrastructure/adapter"
	"storefront/internal/service/order/interfaces"
	"storefront/internal/service/order/port"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)
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
		logger.L().Fatal().Err(err).Msg("order-service exited")
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
		// products 表归商品目录，必须先于订单表
		if err := db.AutoMigrate(cataloginfra.Models()...); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
		if err := db.AutoMigrate(orderinfra.Models()...); err != nil {
			return fmt.Errorf("migrate orders: %w", err)
		}
	}

	var publisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		w := mq.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		app.OnShutdown("kafka writer", func(context.Context) error { return w.Close() })
		publisher = orderinfra.NewOrderEventProducer(w)
	} else {
		logger.L().Warn().Msg("kafka.brokers not set, order events will not be published")
	}

	var idem port.IdempotencyStore
	if cfg.Redis.Addrs != "" {
		// Redis 不可用时服务照常启动，只是不支持幂等键
		rc, err := redis.NewClient(cfg.Redis.Addrs)
		if err != nil {
			logger.L().Warn().Err(err).Msg("redis unavailable, Idempotency-Key support disabled")
		} else {
			app.OnShutdown("redis", func(context.Context) error { return rc.Close() })
			store, err := adapter.NewIdempotencyRedisAdapter(rc)
			if err != nil {
				return err
			}
			idem = store
		}
	}

	tracer := otel.Tracer(serviceName)
	verifier := auth.NewVerifier(cfg.Security.JWTSecret)

	orderRepo := orderinfra.NewGormOrderRepository(db, cfg.Order.TxTimeout)
	orderSvc := application.NewOrderApplicationService(
		orderRepo, publisher, idem,
		metrics.NewOrderMetrics(app.Registry),
		tracer,
		application.Options{
			DefaultPageSize: cfg.Order.DefaultPageSize,
			MaxPageSize:     cfg.Order.MaxPageSize,
			IdempotencyTTL:  cfg.Redis.IdempotencyTTL,
			PendingTTL:      cfg.Order.TxTimeout + 30*time.Second,
		},
	)
	interfaces.NewOrderHandler(orderSvc, verifier).RegisterRoutes(app)

	catalogSvc := catalogapp.NewCatalogService(cataloginfra.NewGormProductRepository(db), tracer)
	catalogapi.NewProductHandler(catalogSvc, verifier).RegisterRoutes(app)
	return nil
}
