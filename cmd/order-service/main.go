// cmd/order-service/main.go
package main

import (
	"context"
	"flag"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"emporium/internal/pkg/bootstrap"
	"emporium/internal/pkg/config"
	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/metrics"
	"emporium/internal/pkg/mq"
	"emporium/internal/pkg/redis"
	"emporium/internal/service/catalog/alert"
	cataloginfra "emporium/internal/service/catalog/infrastructure"
	"emporium/internal/service/order/application"
	"emporium/internal/service/order/domain/port"
	orderinfra "emporium/internal/service/order/infrastructure"
	"emporium/internal/service/order/interfaces"
	userinfra "emporium/internal/service/user/infrastructure"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	logger.Init("order-service")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load config")
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if err := db.AutoMigrate(
		&userinfra.UserModel{},
		&cataloginfra.ProductModel{},
		&orderinfra.OrderModel{},
		&orderinfra.OrderLineModel{},
	); err != nil {
		logger.L().Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient := redis.NewClient(cfg.Redis.Addr, cfg.Redis.DB)

	m := metrics.NewOrderMetrics()
	tracer := otel.Tracer(cfg.Service.Name)

	// 事件出口: websocket 推送始终开启，Kafka 按配置决定
	feed := interfaces.NewFeedHub()
	go feed.Run()
	publishers := port.Fanout{feed}

	var kafkaClose func(ctx context.Context)
	if cfg.Kafka.Enabled {
		writer := mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, orderinfra.NewKafkaEventPublisher(writer))
		kafkaClose = func(ctx context.Context) {
			if err := writer.Close(); err != nil {
				logger.L().Error().Err(err).Msg("error closing kafka writer")
			}
		}
	}

	stores := orderinfra.NewStores(db)
	engine := application.NewOrderService(
		orderinfra.NewGormTxManager(db),
		stores,
		publishers,
		m,
		tracer,
		redisClient,
		cfg.Admin.DashboardCacheTTL.Std(),
	)

	alertEngine, err := alert.NewEngine(cfg.Admin.StockAlertRules)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid stock alert rules")
	}
	alerter := alert.NewService(stores.Products, alertEngine)

	handler := interfaces.NewOrderHandler(engine, alerter, m, feed)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:    cfg.Service.Name,
		Port:           cfg.Service.Port,
		JaegerEndpoint: cfg.Jaeger.Endpoint,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: []func(ctx context.Context){
			func(ctx context.Context) { feed.Close() },
			func(ctx context.Context) {
				if kafkaClose != nil {
					kafkaClose(ctx)
				}
			},
			func(ctx context.Context) {
				if err := redisClient.Close(); err != nil {
					logger.L().Error().Err(err).Msg("error closing redis client")
				}
			},
			func(ctx context.Context) {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		},
	})
}
