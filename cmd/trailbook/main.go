package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/marloweh/trailbook/internal/api"
	"github.com/marloweh/trailbook/internal/config"
	"github.com/marloweh/trailbook/internal/db"
	"github.com/marloweh/trailbook/internal/images"
	"github.com/marloweh/trailbook/internal/mail"
	"github.com/marloweh/trailbook/internal/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("configuration failed")
	}

	logger := newLogger(cfg)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database init failed")
	}

	handler := api.NewHandler(database, api.Options{
		JWTSecret:    cfg.JWTSecret,
		JWTTTL:       cfg.JWTTTL,
		CookieSecure: cfg.CookieSecure,
		Mailer:       newMailer(cfg, logger),
		Checkout:     newCheckoutClient(cfg),
		Images:       images.NewProcessor(filepath.Join(cfg.PublicDir, "img")),
		Logger:       logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               "Trailbook",
		DisableStartupMessage: true,
		ErrorHandler:          api.NewErrorHandler(cfg.Verbose(), logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())

	app.Static("/", cfg.PublicDir)
	api.RegisterRoutes(app, handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DBPath).
		Str("env", cfg.Env).
		Msg("Trailbook listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func bootstrapLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.Env == config.EnvDevelopment {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return bootstrapLogger()
}

func newMailer(cfg config.Config, logger zerolog.Logger) mail.Mailer {
	if cfg.SMTPHost != "" {
		return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}
	return mail.NewLogMailer(logger)
}

func newCheckoutClient(cfg config.Config) payments.CheckoutClient {
	if cfg.CheckoutBaseURL == "" {
		return nil
	}
	return payments.NewRESTCheckoutClient(cfg.CheckoutBaseURL)
}
