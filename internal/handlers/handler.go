package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/generator"
	"openrouter-imagegen/internal/logging"
	"openrouter-imagegen/internal/openrouter"
	"openrouter-imagegen/internal/telegram"
)

const helpText = "🎨 OpenRouter Image Generator\n\n" +
	"Send me a description and I will draw it.\n\n" +
	"Commands:\n" +
	"/start - Start the bot\n" +
	"/help - Show this help\n" +
	"/image <description> - Generate an image"

// Messenger is the subset of *telegram.Client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, name string, data []byte, caption string) error
	SendUploading(chatID int64)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (generator.Result, error)
}

type Options struct {
	Telegram  Messenger
	Generator Generator
	Logger    *slog.Logger
}

type Handler struct {
	tg     Messenger
	gen    Generator
	logger *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		tg:     opts.Telegram,
		gen:    opts.Generator,
		logger: logger,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if text := strings.TrimSpace(msg.Text); text != "" {
		return h.generate(ctx, chatID, text)
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "image":
		prompt := strings.TrimSpace(msg.CommandArguments())
		if prompt == "" {
			return h.tg.SendText(chatID, "❌ Please describe the image.\nExample: /image a red cat")
		}
		return h.generate(ctx, chatID, prompt)
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) generate(ctx context.Context, chatID int64, prompt string) error {
	h.tg.SendUploading(chatID)
	_ = h.tg.SendText(chatID, "🎨 Generating, please wait...")

	res, err := h.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		h.logger.Error("image generation failed", "chat_id", chatID, logging.Err(err))
		return h.tg.SendText(chatID, failureText(err))
	}

	out := res.Outcome
	switch out.Status {
	case extractor.StatusSaved:
		caption := fmt.Sprintf("✅ %q", prompt)
		return h.tg.SendPhoto(chatID, out.Artifact.Filename, out.Artifact.Bytes, caption)
	case extractor.StatusNotFound:
		text := "❌ The model did not return an image."
		if res.Raw.ErrorMessage != "" {
			text += "\nProvider message: " + res.Raw.ErrorMessage
		}
		return h.tg.SendText(chatID, text)
	default:
		h.logger.Warn("image not delivered", "chat_id", chatID, "status", out.Status.String(), logging.Err(out.Err))
		return h.tg.SendText(chatID, "❌ "+out.Message())
	}
}

func failureText(err error) string {
	var statusErr *openrouter.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("❌ OpenRouter rejected the request (%s).", statusErr.Status)
	case errors.Is(err, context.DeadlineExceeded):
		return "❌ The request timed out. Please try again."
	case errors.Is(err, openrouter.ErrMalformedResponse), errors.Is(err, extractor.ErrMalformedResponse):
		return "❌ OpenRouter returned an unreadable response."
	default:
		return "❌ Something went wrong. Please try again."
	}
}
