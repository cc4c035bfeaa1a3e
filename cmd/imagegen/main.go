package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"openrouter-imagegen/internal/config"
	"openrouter-imagegen/internal/console"
	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/generator"
	"openrouter-imagegen/internal/httpclient"
	"openrouter-imagegen/internal/logging"
	"openrouter-imagegen/internal/opener"
	"openrouter-imagegen/internal/openrouter"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	prompt := flag.String("prompt", "", "generate one image and exit")
	noOpen := flag.Bool("no-open", false, "do not open saved images")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	_ = godotenv.Load()

	// Launcher chatter from xdg-open and friends would land in the prompt.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *noOpen {
		cfg.NoOpen = true
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}).With(logging.Module("cli"))
	logger.Debug("config loaded", "model", cfg.Model, "base_url", cfg.BaseURL, logging.Secret("api_key", cfg.APIKey))

	svc, err := newService(cfg, logger)
	if err != nil {
		logger.Error("init failed", logging.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	printer := console.NewPrinter(console.PrinterOptions{Out: os.Stdout, NoColor: *noColor})
	repl := &console.REPL{
		Generator: svc,
		Printer:   printer,
		Timeout:   cfg.RequestTimeout,
	}

	if *prompt != "" {
		if !repl.Once(ctx, *prompt) {
			os.Exit(1)
		}
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\nEnter image description: ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		logger.Error("terminal init failed", logging.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = rl.Close()
	}()

	printer.Banner(cfg.Model)
	repl.Reader = rl
	if err := repl.Run(ctx); err != nil {
		logger.Error("prompt loop stopped", logging.Err(err))
		os.Exit(1)
	}
}

func newService(cfg config.Config, logger *slog.Logger) (*generator.Service, error) {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Referer:    cfg.Referer,
		Title:      cfg.Title,
	})

	client := openrouter.New(openrouter.Options{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		HTTPClient: httpClient,
		Logger:     logger.With(logging.Module("openrouter")),
	})

	ext := extractor.New(extractor.Options{
		Dir:           cfg.OutputDir,
		StrictDataURL: cfg.StrictDataURL,
		Logger:        logger.With(logging.Module("extractor")),
	})

	var open generator.Opener
	if !cfg.NoOpen {
		open = opener.New(opener.Options{Logger: logger.With(logging.Module("opener"))})
	}

	return generator.New(generator.Options{
		Completer: client,
		Extractor: ext,
		Opener:    open,
		DebugFile: cfg.DebugFile,
		Logger:    logger,
	})
}
