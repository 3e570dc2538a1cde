package main

import (
	"context"
	"enhancebot/internal/adapters/enhancer"
	"enhancebot/internal/adapters/file"
	"enhancebot/internal/adapters/handler"
	"enhancebot/internal/adapters/httpapi"
	"enhancebot/internal/adapters/sender"
	"enhancebot/internal/config"
	"enhancebot/internal/core/domain"
	"enhancebot/internal/core/domain/command"
	"enhancebot/internal/core/service"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting enhancebot...")

	log.Info().Msg("reading config file...")
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	var logLevel zerolog.Level

	switch cfg.Bot.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defaultProvider, err := domain.ParseProvider(cfg.Enhance.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid enhance provider in config")
	}

	registry := enhancer.NewRegistry(cfg.Providers)

	// fail at startup instead of on the first request when credentials are missing
	if _, err := registry.Resolve(defaultProvider, cfg.Enhance.Model); err != nil {
		log.Fatal().Err(err).Msg("failed initializing default enhancer")
	}

	enhanceService := service.NewEnhancer(registry, defaultProvider, cfg.Enhance.Model)

	var server *http.Server
	if cfg.HTTP.ListenAddr != "" {
		server = &http.Server{
			Addr:              cfg.HTTP.ListenAddr,
			Handler:           httpapi.NewAPI(enhanceService).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("http api listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http api stopped")
				cancel()
			}
		}()
	}

	if cfg.Telegram.BotToken != "" {
		startBot(ctx, cfg, enhanceService)
	} else {
		<-ctx.Done()
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed shutting down http api")
		}
	}

	log.Info().Msg("enhancebot stopped")
}

// startBot wires the Telegram presentation and blocks until ctx is cancelled.
func startBot(ctx context.Context, cfg *config.Config, enhanceService *service.Enhancer) {
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(cfg.Telegram.BotToken, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b)
	auth := service.NewAuthorizer(cfg.Telegram.AllowedChatIDs, cfg.Telegram.AdminUsername, s)
	tracker := service.NewUsageTracker(ctx, cfg.Telegram.DailyCreditLimit, s)

	commandRegistry := &command.Registry{}

	commandRegistry.Register(command.NewEnhance(enhanceService, file.HTTPDownloader{}, s, s, auth, tracker,
		command.EnhanceConfig{
			Provider: cfg.Enhance.Provider,
			Model:    cfg.Enhance.Model,
			Cost:     cfg.Enhance.JobCost,
		}, "/enhance"))
	commandRegistry.Register(command.NewModels(enhanceService, s, "/models"))
	commandRegistry.Register(command.NewCredits(tracker, s, "/credits"))
	commandRegistry.Register(command.NewHelp(commandRegistry, s, "/help"))
	commandRegistry.Register(command.NewHelp(commandRegistry, s, "/start"))

	commandHandler := handler.NewCommand(commandRegistry, b, cfg.Bot.HandlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
