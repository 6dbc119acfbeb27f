package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rashedman4/special-backend/internal/config"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository/database"
	"github.com/Rashedman4/special-backend/internal/repository/memory"
	"github.com/Rashedman4/special-backend/internal/repository/redis"
	"github.com/Rashedman4/special-backend/internal/router"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	pkg.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sentryOn := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.AppEnv}); err != nil {
			logrus.WithError(err).Warn("sentry init failed")
		} else {
			sentryOn = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 存储：memory 用于本地开发，其余走 gorm
	var st stores
	if cfg.DB.Driver == "memory" {
		st = memoryStores(memory.New())
	} else {
		db, err := database.Open(database.Options{
			Driver:          cfg.DB.Driver,
			DSN:             cfg.DSN(),
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		})
		if err != nil {
			logrus.WithError(err).Fatal("open database")
		}
		defer database.Close(db)
		// 自动建表
		if err := database.Migrate(db); err != nil {
			logrus.WithError(err).Fatal("migrate")
		}
		st = dbStores(db)
	}

	// redis 可选：幂等键和后台任务锁
	var (
		idem service.IdempotencyStore
		lock service.Locker
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(context.Background(), redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logrus.WithError(err).Fatal("connect redis")
		}
		defer rdb.Close()
		idem = redis.NewIdempotencyRepository(rdb)
		lock = redis.NewDistLock(rdb)
	}

	// kafka 可选，未配置时事件只打日志
	sender := service.Sender(service.LogSender)
	if len(cfg.Kafka.Brokers) > 0 {
		writer := pkg.NewEventWriter(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer writer.Close()
		sender = service.KafkaSender(writer)
	}

	tokens := pkg.NewTokenIssuer(pkg.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})

	loc, err := cfg.Location()
	if err != nil {
		logrus.WithError(err).Fatal("load timezone")
	}

	communities := service.NewCommunityService(st.communities, st.members, st.wallets, st.users)
	posts := service.NewPostService(service.PostDeps{
		Posts:    st.posts,
		Likes:    st.likes,
		Polls:    st.polls,
		Events:   st.events,
		Profiles: st.users,
		Gate:     communities,
	}, service.PostOptions{
		EnforceMembershipGate: cfg.Domain.EnforceCommunityMembershipGate,
		DefaultLimit:          cfg.Domain.PostsDefaultLimit,
		MaxLimit:              cfg.Domain.PostsMaxLimit,
		Location:              loc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.NewOutboxRelayer(st.outbox, sender, lock, cfg.Jobs.OutboxBatch, cfg.Jobs.OutboxInterval).Run(ctx)
	go service.NewCounterReconciler(st.reconcile, lock, cfg.Jobs.ReconcileBatch, cfg.Jobs.ReconcileInterval).Run(ctx)

	r := router.InitRouter(router.Deps{
		Users:       service.NewUserService(st.users, tokens, cfg.Domain.SignupBonus),
		Wallets:     service.NewWalletService(st.wallets, idem),
		Communities: communities,
		Posts:       posts,
		Tokens:      tokens,
		AdminToken:  cfg.AdminToken,
		Sentry:      sentryOn,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown")
	}
}
