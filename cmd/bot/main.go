package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"openrouter-imagegen/internal/config"
	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/generator"
	"openrouter-imagegen/internal/handlers"
	"openrouter-imagegen/internal/httpclient"
	"openrouter-imagegen/internal/logging"
	"openrouter-imagegen/internal/openrouter"
	"openrouter-imagegen/internal/telegram"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.RequireTelegram()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}).With(logging.Module("bot"))

	openrouterHTTP, telegramHTTP := newHTTPClients(cfg)

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: telegramHTTP,
		Logger:     logger.With(logging.Module("telegram")),
		Debug:      cfg.TelegramDebug,
	})
	if err != nil {
		logger.Error("telegram init failed", logging.Err(err))
		os.Exit(1)
	}

	client := openrouter.New(openrouter.Options{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		HTTPClient: openrouterHTTP,
		Logger:     logger.With(logging.Module("openrouter")),
	})

	svc, err := generator.New(generator.Options{
		Completer: client,
		Extractor: extractor.New(extractor.Options{
			Dir:           cfg.OutputDir,
			StrictDataURL: cfg.StrictDataURL,
			Logger:        logger.With(logging.Module("extractor")),
		}),
		DebugFile: cfg.DebugFile,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("generator init failed", logging.Err(err))
		os.Exit(1)
	}

	handler := handlers.New(handlers.Options{
		Telegram:  tg,
		Generator: svc,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("bot started", "username", tg.Username(), "model", client.Model())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	var eg errgroup.Group
	eg.SetLimit(cfg.MaxConcurrent)
	defer func() { _ = eg.Wait() }()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			eg.Go(func() error {
				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", logging.Err(err))
				}
				return nil
			})
		}
	}
}

// newHTTPClients returns the OpenRouter client, which carries the app
// attribution headers, and a plain one for the Telegram API.
func newHTTPClients(cfg config.Config) (orClient, tgClient *http.Client) {
	orClient = httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Referer:    cfg.Referer,
		Title:      cfg.Title,
	})
	tgClient = httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})
	return orClient, tgClient
}
