// Command server runs the farm backend HTTP API.
//
// @title                       Farm Backend API
// @version                     1.0
// @description                 Account lifecycle, farm memberships and consultant workflow.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/milkmix/farm-backend/internal/api"
	"github.com/milkmix/farm-backend/internal/core/service"
	"github.com/milkmix/farm-backend/internal/infrastructure/config"
	mongodb "github.com/milkmix/farm-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/milkmix/farm-backend/internal/infrastructure/db/redis"
	"github.com/milkmix/farm-backend/internal/infrastructure/http/handlers"
	"github.com/milkmix/farm-backend/internal/infrastructure/mail"
	"github.com/milkmix/farm-backend/internal/infrastructure/queue"
	"github.com/milkmix/farm-backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := run(boot); err != nil {
		boot.Fatal().Err(err).Msg("server stopped")
	}
}

func run(boot zerolog.Logger) error {
	cfg, err := config.Load(boot)
	if err != nil {
		return err
	}
	log := logger.Init(loggerOptions(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Mail ---
	mailer, err := mail.New(mail.Config{
		Driver: cfg.Mail.Driver,
		From:   cfg.Mail.From,
		SMTP: mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
		},
		Kafka: mail.KafkaConfig{Brokers: cfg.Mail.KafkaBrokers, Topic: cfg.Mail.KafkaTopic},
	}, logger.Component("mail"))
	if err != nil {
		return err
	}
	if closer, ok := mailer.(io.Closer); ok {
		defer closer.Close()
	}
	dispatcher := queue.NewDispatcher(cfg.Mail.NotifyWorkers, mailer, logger.Component("notifier"))

	// --- Repositories ---
	accounts := mongodb.NewAccountRepository(db)
	profiles := mongodb.NewProfileRepository(db)
	members := mongodb.NewMemberRepository(db)
	consultants := mongodb.NewConsultantRepository(db)
	tx := mongodb.NewTxManager(client)
	otpStore := redisdb.NewOTPStore(rdb, cfg.OTP.Retention)

	// --- Services ---
	sessions := service.NewSessionIssuer(cfg.JWTSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)
	creds := service.NewCredentialService(accounts, profiles, cfg.Tokens.BcryptCost)
	otps := service.NewOTPService(otpStore, logger.Component("otp"),
		service.WithOTPTTL(cfg.OTP.TTL),
		service.WithMaxAttempts(cfg.OTP.MaxAttempts),
	)
	profileSvc := service.NewProfileService(accounts, profiles, cfg.PhoneRegion)
	authSvc := service.NewAuthService(service.AuthDeps{
		Accounts:    accounts,
		Profiles:    profiles,
		ProfileSvc:  profileSvc,
		Credentials: creds,
		OTPs:        otps,
		Sessions:    sessions,
		Mailer:      mailer,
		Notifier:    dispatcher,
		Tx:          tx,
	}, logger.Component("auth"))
	memberSvc := service.NewMemberService(accounts, profiles, members, creds, profileSvc, tx, dispatcher, logger.Component("members"))
	consultantSvc := service.NewConsultantService(accounts, profiles, consultants, memberSvc, tx, logger.Component("consultants"))

	e := api.NewRouter(api.Dependencies{
		Log:         logger.Component("http"),
		Tokens:      sessions,
		Auth:        authSvc,
		Profiles:    profileSvc,
		Members:     memberSvc,
		Consultants: consultantSvc,
		Readiness:   handlers.NewHealthDependenciesHandler(db, rdb),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "farm-backend",
	}
}
