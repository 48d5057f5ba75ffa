package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/auth"
	"github.com/Leganyst/salon-booking/internal/config"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/db"
	"github.com/Leganyst/salon-booking/internal/events"
	"github.com/Leganyst/salon-booking/internal/grpcapi"
	"github.com/Leganyst/salon-booking/internal/handler"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/logger"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
)

func main() {
	// 1. .env (если есть) и конфиг из env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Логгер.
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	// 3. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg.DB)
	if err != nil {
		lg.Fatal("init db", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		lg.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 4. Миграции и exclusion-констрейнт.
	if cfg.DB.AutoMigrate {
		if err := model.AutoMigrate(gormDB); err != nil {
			lg.Fatal("auto migrate", zap.Error(err))
		}
	}
	if cfg.DB.ExclusionConstraints {
		if err := model.EnsureExclusionConstraints(gormDB); err != nil {
			lg.Fatal("exclusion constraints", zap.Error(err))
		}
	}

	// 5. Хранилище. sqlite не понимает уровни изоляции, там по умолчанию.
	var storeOpts []repository.StoreOption
	if cfg.DB.Driver == config.DriverSQLite {
		storeOpts = append(storeOpts, repository.WithIsolation(sql.LevelDefault))
	} else {
		storeOpts = append(storeOpts,
			repository.WithIsolation(repository.IsolationLevel(cfg.DB.TxIsolation)),
			repository.WithMaxRetries(cfg.DB.TxMaxRetries),
		)
	}
	store := repository.NewStore(gormDB, storeOpts...)

	// 6. Блокировки: Redis, если задан адрес, иначе в памяти процесса.
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			lg.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		locker = lock.NewRedisLocker(rdb, lock.RedisOptions{
			TTL:     cfg.Redis.LockTTL,
			Retries: cfg.Redis.LockRetries,
			Backoff: cfg.Redis.LockBackoff,
		}, lg)
	} else {
		lg.Warn("REDIS_ADDR is empty, using in-process locks")
		locker = lock.NewLocalLocker()
	}

	// 7. События изменений в RabbitMQ.
	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, lg)
		if err != nil {
			lg.Fatal("amqp publisher", zap.Error(err))
		}
		publisher = p
	}
	defer publisher.Close()

	// 8. Сервисы.
	hours := crosscheck.DefaultHours{Weekday: cfg.Business.Weekday, Weekend: cfg.Business.Weekend}
	cal := service.NewCalendar(store, locker, publisher, hours, lg)
	dir := service.NewDirectory(store, lg)

	// 9. HTTP (fiber).
	if cfg.JWT.Secret == "" {
		lg.Warn("JWT_SECRET is empty, HTTP and gRPC APIs are not authenticated")
	}
	app := handler.NewApp(
		handler.New(cal, dir, lg),
		cfg.Server.CORSOrigins,
		auth.Middleware(cfg.JWT.Secret, store.Staff, lg),
		lg,
	)
	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := app.Listen(cfg.Server.HTTPAddr); err != nil {
			lg.Fatal("http serve", zap.Error(err))
		}
	}()

	// 10. gRPC.
	grpcServer, healthServer := grpcapi.NewServer(cal, lg, auth.UnaryInterceptor(cfg.JWT.Secret, store.Staff, lg))
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		lg.Fatal("listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}
	go func() {
		lg.Info("grpc server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			lg.Fatal("grpc serve", zap.Error(err))
		}
	}()

	// 11. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down")
	healthServer.Shutdown()
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
}
