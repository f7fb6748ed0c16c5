package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go_hostcfg/api/v1"
	"go_hostcfg/internal/auth"
	"go_hostcfg/internal/cache"
	"go_hostcfg/internal/cert"
	"go_hostcfg/internal/config"
	"go_hostcfg/internal/db"
	"go_hostcfg/internal/hostconfig"
	"go_hostcfg/internal/httpx"
	"go_hostcfg/internal/revision"
	"go_hostcfg/internal/settings"
	"go_hostcfg/internal/storesync"
	"go_hostcfg/internal/users"
	"go_hostcfg/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	iniPath := flag.String("config", "", "optional INI file with service configuration")
	flag.Parse()

	// 1. Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *iniPath != "" {
		cfg, err = config.LoadFromINI(*iniPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := newLogger(cfg.Log)
	log := logrus.NewEntry(logger)
	httpx.SetLogger(log.WithField("component", "httpx"))
	log.Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize the user store database
	if err := db.Init(cfg.DB, log); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB(), log); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log); err != nil {
		log.WithError(err).Fatal("Failed to initialize Redis")
	}
	defer cache.Close()

	auth.InitJWT(cfg.JWT.Secret)

	userStore := users.NewStore(db.GetDB(), log)
	if cfg.Bootstrap.AdminUser != "" {
		if _, err := userStore.EnsureUser(ctx, cfg.Bootstrap.AdminUser, cfg.Bootstrap.AdminPassword); err != nil {
			log.WithError(err).Fatal("Failed to bootstrap admin user")
		}
	}

	// 4. Host configuration engine
	files := settings.NewFileStore(cfg.HostConfig.File)
	service := settings.NewRedisStore(cache.Client, cfg.HostConfig.RedisKey)
	revisions := revision.NewService(db.GetDB(), log)

	reader := hostconfig.NewReader(cfg.App.ProductName, files, userStore, log)
	validator := hostconfig.NewValidator(cfg.App.ProductName, userStore, cert.NewVerifier(log), log)
	writer := hostconfig.NewWriter(files, service, userStore, revisions, log)
	svc := hostconfig.NewService(reader, validator, writer)

	if cfg.HostConfig.SyncIntervalSec > 0 {
		syncWorker := storesync.NewWorker(&storesync.Config{
			Resyncer:    writer,
			Logger:      log,
			IntervalSec: cfg.HostConfig.SyncIntervalSec,
		})
		syncWorker.Start()
		defer syncWorker.Stop()
	}

	hub := ws.NewHub(func(ctx context.Context) (interface{}, error) {
		return svc.Get(ctx)
	}, log)
	hub.Start()
	defer hub.Close()

	// 5. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log.WithField("component", "http")))

	v1.SetupRouter(r, v1.Deps{
		Config:    cfg,
		Users:     userStore,
		Service:   svc,
		Revisions: revisions,
		Notifier:  hub,
		StartedAt: time.Now(),
	})
	socket := hub.Handler()
	r.GET("/socket.io/*any", gin.WrapH(socket))
	r.POST("/socket.io/*any", gin.WrapH(socket))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithField("level", cfg.Level).Warn("Unknown log level, using info")
	}
	logger.SetLevel(level)
	return logger
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("Request handled")
	}
}
