package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logging"
	"github.com/inkpress/internal/mail"
	"github.com/inkpress/internal/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	sessionSecret, err := cfg.SessionKey()
	if err != nil {
		logger.Fatal("invalid session configuration", zap.Error(err))
	}

	// 初始化数据库
	gdb, err := db.Init(cfg.DatabasePath, db.WithLogger(logging.NewGormLogger(logger)))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Fatal("failed to ensure super root user", zap.Error(err))
	}

	r, err := router.SetupRouter(gdb, router.Options{
		SessionSecret: sessionSecret,
		SiteBaseURL:   cfg.SiteBaseURL,
		Mailer:        newMailer(cfg.Mail, logger),
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("mail_backend", cfg.Mail.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newMailer(cfg config.MailConfig, logger *zap.Logger) mail.Mailer {
	if cfg.Backend == config.MailBackendSMTP {
		return mail.NewSMTPMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From)
	}
	return mail.NewConsoleMailer(logger, cfg.From)
}
