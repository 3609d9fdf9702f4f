package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // часовые пояса локаций без системной tzdata

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/config"
	"github.com/Leganyst/studio-booking/internal/db"
	"github.com/Leganyst/studio-booking/internal/events"
	"github.com/Leganyst/studio-booking/internal/idempotency"
	"github.com/Leganyst/studio-booking/internal/logger"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/obs"
	"github.com/Leganyst/studio-booking/internal/repository"
	"github.com/Leganyst/studio-booking/internal/service"
	"github.com/Leganyst/studio-booking/internal/storage"
	"github.com/Leganyst/studio-booking/internal/transport/grpcserver"
	"github.com/Leganyst/studio-booking/internal/transport/httpapi"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("core stopped")
	}
}

func run() error {
	// 1. Конфиг и логгер.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.App.ServiceName, cfg.App.Env, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	// 2. БД и миграции.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 3. Репозитории.
	tx := repository.NewGormTransactor(gormDB, db.TxOptions(cfg.DB.TxIsolation))
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	roomRepo := repository.NewGormRoomRepository(gormDB)
	providerRepo := repository.NewGormProviderRepository(gormDB)
	locationRepo := repository.NewGormLocationRepository(gormDB)
	upgradeRepo := repository.NewGormUpgradeRepository(gormDB)
	durationRepo := repository.NewGormDurationOptionRepository(gormDB)
	billingRepo := repository.NewGormBillingRepository(gormDB)
	roomPriceRepo := repository.NewGormRoomPriceRepository(gormDB)
	upgradePriceRepo := repository.NewGormUpgradePriceRepository(gormDB)
	tierRepo := repository.NewGormTierRepository(gormDB)

	// 4. Необязательная инфраструктура: без адреса просто выключается.
	var publisher events.Publisher = events.Noop{}
	if cfg.Rabbit.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return fmt.Errorf("init rabbitmq publisher: %w", err)
		}
		publisher = amqpPub
		log.WithField("exchange", cfg.Rabbit.Exchange).Info("domain events go to rabbitmq")
	}
	defer publisher.Close()

	var idem idempotency.Store
	if cfg.Redis.Addr != "" {
		client, err := idempotency.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer client.Close()
		idem = idempotency.NewRedisStore(client, cfg.Redis.IdempotencyTTL)
	}

	var store storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		minioStore, err := storage.NewMinIOStore(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
		if err != nil {
			return fmt.Errorf("init minio: %w", err)
		}
		store = minioStore
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Сервисы.
	pricer := service.NewPricer(roomRepo, roomPriceRepo, tierRepo, upgradePriceRepo)
	svc := httpapi.Services{
		Bookings:      service.NewBookingService(tx, bookingRepo, roomRepo, providerRepo, upgradeRepo, billingRepo, pricer, publisher, m, log),
		Billings:      service.NewBillingService(tx, bookingRepo, billingRepo, providerRepo, roomRepo, locationRepo, pricer, publisher, m, log),
		RoomPrices:    service.NewRoomPriceTimeline(tx, roomPriceRepo, roomRepo, publisher, m, log),
		UpgradePrices: service.NewUpgradePriceTimeline(tx, upgradePriceRepo, upgradeRepo, publisher, m, log),
		Tiers:         service.NewTierService(tx, roomPriceRepo, tierRepo, log),
		Catalog:       service.NewCatalogService(tx, locationRepo, roomRepo, providerRepo, durationRepo, upgradeRepo, bookingRepo, log),
		Export:        service.NewExportService(billingRepo, providerRepo, roomRepo, locationRepo, store, cfg.MinIO.URLExpiry, log),
	}

	// 6. HTTP.
	router := httpapi.NewRouter(svc, httpapi.Options{
		Log:         log,
		Metrics:     m,
		Gatherer:    reg,
		Idempotency: idem,
		Limiter:     httpapi.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		Ping:        sqlDB.PingContext,
	})
	httpServer := httpapi.NewServer(cfg.HTTP.Addr, router)
	// ошибка любого из серверов ведёт в тот же шатдаун, что и сигнал
	serveErr := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http serve: %w", err)
		}
	}()

	// 7. gRPC: health и reflection.
	grpcServer := grpcserver.New(log)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", cfg.GRPC.Addr, err)
	}
	go grpcServer.WatchDependency(ctx, 15*time.Second, sqlDB.PingContext)
	go func() {
		log.WithField("addr", cfg.GRPC.Addr).Info("grpc server listening")
		if err := grpcServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу или по ошибке сервера.
	var failed error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case failed = <-serveErr:
		log.WithError(failed).Error("server failed, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	grpcServer.GracefulStop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
	return failed
}
