package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	redisCache "github.com/contactbook/backend/internal/adapters/cache/redis"
	pgrepo "github.com/contactbook/backend/internal/adapters/db/postgres"
	"github.com/contactbook/backend/internal/adapters/mail"
	"github.com/contactbook/backend/internal/adapters/storage/minio"
	httptransport "github.com/contactbook/backend/internal/adapters/transport/http"
	"github.com/contactbook/backend/internal/app/auth"
	"github.com/contactbook/backend/internal/app/contacts"
	"github.com/contactbook/backend/internal/app/token"
	"github.com/contactbook/backend/internal/app/users"
	"github.com/contactbook/backend/internal/infra/config"
	lg "github.com/contactbook/backend/internal/infra/log"
	"github.com/contactbook/backend/internal/infra/migrate"
	"github.com/contactbook/backend/internal/infra/validation"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCli.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		zapLog.Fatal("failed to connect to redis", zap.Error(err))
	}
	cancelPing()

	codec, err := token.NewCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	mailer, err := mail.NewSMTPMailer(cfg)
	if err != nil {
		zapLog.Fatal("failed to init mailer", zap.Error(err))
	}

	storeCtx, cancelStore := context.WithTimeout(context.Background(), 10*time.Second)
	avatars, err := minio.NewAvatarStore(storeCtx, cfg)
	cancelStore()
	if err != nil {
		zapLog.Fatal("failed to init avatar storage", zap.Error(err))
	}

	validate := validation.New()

	userRepo := pgrepo.NewUserRepo(db)
	contactRepo := pgrepo.NewContactRepo(db)
	userCache := redisCache.NewUserCache(redisCli)

	authSvc := auth.New(userRepo, userCache, mailer, codec, validate, zapLog, cfg.AppBaseURL)
	userSvc := users.New(userRepo, userCache, avatars, validate, zapLog)
	contactSvc := contacts.New(contactRepo, validate)

	handler := httptransport.NewHandler(authSvc, userSvc, contactSvc)
	router := httptransport.NewRouter(handler, cfg, zapLog)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("address", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
