package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/generator"
	"openrouter-imagegen/internal/openrouter"
	"openrouter-imagegen/internal/telegram"
)

type sentPhoto struct {
	name    string
	data    []byte
	caption string
}

type fakeMessenger struct {
	texts     []string
	photos    []sentPhoto
	uploading int
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendPhoto(_ int64, name string, data []byte, caption string) error {
	f.photos = append(f.photos, sentPhoto{name: name, data: data, caption: caption})
	return nil
}

func (f *fakeMessenger) SendUploading(int64) { f.uploading++ }

type fakeGenerator struct {
	prompts []string
	result  generator.Result
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (generator.Result, error) {
	f.prompts = append(f.prompts, prompt)
	return f.result, f.err
}

func textUpdate(text string) telegram.Update {
	return telegram.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 7},
		Text: text,
	}}
}

func commandUpdate(text string, cmdLen int) telegram.Update {
	u := textUpdate(text)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return u
}

func savedResult() generator.Result {
	return generator.Result{Outcome: extractor.Outcome{
		Status: extractor.StatusSaved,
		Artifact: &extractor.Artifact{
			Bytes:    []byte("hello"),
			Format:   extractor.FormatPNG,
			Filename: "generated_image_a_red_cat.png",
		},
	}}
}

func newHandler(gen *fakeGenerator) (*Handler, *fakeMessenger) {
	tg := &fakeMessenger{}
	return New(Options{Telegram: tg, Generator: gen}), tg
}

func TestHandleUpdate_ImageCommand(t *testing.T) {
	gen := &fakeGenerator{result: savedResult()}
	h, tg := newHandler(gen)

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate("/image a red cat", 6)))
	require.Equal(t, []string{"a red cat"}, gen.prompts)
	require.Equal(t, 1, tg.uploading)
	require.Len(t, tg.photos, 1)
	require.Equal(t, "generated_image_a_red_cat.png", tg.photos[0].name)
	require.Equal(t, []byte("hello"), tg.photos[0].data)
	require.Equal(t, `✅ "a red cat"`, tg.photos[0].caption)
}

func TestHandleUpdate_PlainText(t *testing.T) {
	gen := &fakeGenerator{result: savedResult()}
	h, tg := newHandler(gen)

	require.NoError(t, h.HandleUpdate(context.Background(), textUpdate("  a red cat ")))
	require.Equal(t, []string{"a red cat"}, gen.prompts)
	require.Len(t, tg.photos, 1)
}

func TestHandleUpdate_ImageWithoutPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	h, tg := newHandler(gen)

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate("/image", 6)))
	require.Empty(t, gen.prompts)
	require.Len(t, tg.texts, 1)
	require.Contains(t, tg.texts[0], "Please describe the image")
}

func TestHandleUpdate_Commands(t *testing.T) {
	h, tg := newHandler(&fakeGenerator{})

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate("/start", 6)))
	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate("/nope", 5)))
	require.Equal(t, []string{helpText, "❌ Unknown command. Use /help."}, tg.texts)
}

func TestHandleUpdate_NoMessage(t *testing.T) {
	h, tg := newHandler(&fakeGenerator{})

	require.NoError(t, h.HandleUpdate(context.Background(), telegram.Update{}))
	require.Empty(t, tg.texts)
}

func TestHandleUpdate_NotFound(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{
		Outcome: extractor.Outcome{Status: extractor.StatusNotFound},
		Raw:     openrouter.RawResponse{ErrorMessage: "quota exceeded"},
	}}
	h, tg := newHandler(gen)

	require.NoError(t, h.HandleUpdate(context.Background(), textUpdate("a red cat")))
	require.Empty(t, tg.photos)
	require.Equal(t, "❌ The model did not return an image.\nProvider message: quota exceeded", tg.texts[len(tg.texts)-1])
}

func TestHandleUpdate_DecodeFailed(t *testing.T) {
	gen := &fakeGenerator{result: generator.Result{Outcome: extractor.Outcome{
		Status: extractor.StatusDecodeFailed,
		Err:    extractor.ErrDecode,
	}}}
	h, tg := newHandler(gen)

	require.NoError(t, h.HandleUpdate(context.Background(), textUpdate("a red cat")))
	require.Contains(t, tg.texts[len(tg.texts)-1], "Error extracting base64 image")
}

func TestHandleUpdate_GenerateErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"status", fmt.Errorf("generate: %w", &openrouter.StatusError{StatusCode: 429, Status: "429 Too Many Requests"}), "❌ OpenRouter rejected the request (429 Too Many Requests)."},
		{"timeout", fmt.Errorf("generate: %w", context.DeadlineExceeded), "❌ The request timed out. Please try again."},
		{"malformed", fmt.Errorf("generate: %w", openrouter.ErrMalformedResponse), "❌ OpenRouter returned an unreadable response."},
		{"undecodable", fmt.Errorf("generate: %w", extractor.ErrMalformedResponse), "❌ OpenRouter returned an unreadable response."},
		{"other", errors.New("boom"), "❌ Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, tg := newHandler(&fakeGenerator{err: tc.err})
			require.NoError(t, h.HandleUpdate(context.Background(), textUpdate("a red cat")))
			require.Equal(t, tc.want, tg.texts[len(tg.texts)-1])
		})
	}
}

func TestHandleUpdate_Canceled(t *testing.T) {
	h, _ := newHandler(&fakeGenerator{err: fmt.Errorf("generate: %w", context.Canceled)})
	require.ErrorIs(t, h.HandleUpdate(context.Background(), textUpdate("a red cat")), context.Canceled)
}
