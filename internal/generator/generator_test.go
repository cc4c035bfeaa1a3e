package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/openrouter"
)

const redCatResponse = `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"data:image/png;base64,aGVsbG8="}}]}}]}`

type fakeCompleter struct {
	body    string
	err     error
	prompts []string
	mu      sync.Mutex
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (openrouter.RawResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return openrouter.RawResponse{}, f.err
	}
	return openrouter.RawResponse{Body: []byte(f.body)}, nil
}

type fakeOpener struct {
	paths []string
	err   error
}

func (f *fakeOpener) Open(path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

func newService(t *testing.T, c Completer, o Opener) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc, err := New(Options{
		Completer: c,
		Extractor: extractor.New(extractor.Options{Dir: dir}),
		Opener:    o,
		DebugFile: filepath.Join(dir, "response_debug.json"),
	})
	require.NoError(t, err)
	return svc, dir
}

func TestGenerate_SavesImageAndDebugFile(t *testing.T) {
	completer := &fakeCompleter{body: redCatResponse}
	opener := &fakeOpener{}
	svc, dir := newService(t, completer, opener)

	result, err := svc.Generate(context.Background(), "  a red cat  ")
	require.NoError(t, err)

	require.Equal(t, []string{"a red cat"}, completer.prompts)
	require.True(t, result.Outcome.Saved())
	require.Equal(t, filepath.Join(dir, "generated_image_a_red_cat.png"), result.Outcome.Path)
	require.Equal(t, []string{result.Outcome.Path}, opener.paths)
	require.NoError(t, result.OpenErr)

	data, err := os.ReadFile(filepath.Join(dir, "generated_image_a_red_cat.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	debug, err := os.ReadFile(result.DebugPath)
	require.NoError(t, err)
	require.JSONEq(t, redCatResponse, string(debug))
	require.Contains(t, string(debug), "\n  \"choices\"")
}

func TestGenerate_NoImage(t *testing.T) {
	completer := &fakeCompleter{body: `{"choices":[{"message":{"content":"I can only describe cats."}}]}`}
	opener := &fakeOpener{}
	svc, dir := newService(t, completer, opener)

	result, err := svc.Generate(context.Background(), "cat")
	require.NoError(t, err)
	require.Equal(t, extractor.StatusNotFound, result.Outcome.Status)
	require.Empty(t, opener.paths)
	require.Contains(t, result.PrettyResponse(), "I can only describe cats.")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the debug file is written")
}

func TestGenerate_OpenFailureIsNotFatal(t *testing.T) {
	opener := &fakeOpener{err: errors.New("no viewer")}
	svc, _ := newService(t, &fakeCompleter{body: redCatResponse}, opener)

	result, err := svc.Generate(context.Background(), "a red cat")
	require.NoError(t, err)
	require.True(t, result.Outcome.Saved())
	require.Error(t, result.OpenErr)
}

func TestGenerate_NoOpener(t *testing.T) {
	svc, _ := newService(t, &fakeCompleter{body: redCatResponse}, nil)

	result, err := svc.Generate(context.Background(), "a red cat")
	require.NoError(t, err)
	require.True(t, result.Outcome.Saved())
}

func TestGenerate_TransportError(t *testing.T) {
	transportErr := &openrouter.StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
	svc, dir := newService(t, &fakeCompleter{err: transportErr}, nil)

	_, err := svc.Generate(context.Background(), "cat")
	require.ErrorIs(t, err, openrouter.ErrTransport)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestGenerate_MalformedBody(t *testing.T) {
	svc, _ := newService(t, &fakeCompleter{body: `["not","an","object"]`}, nil)

	result, err := svc.Generate(context.Background(), "cat")
	require.ErrorIs(t, err, extractor.ErrMalformedResponse)
	require.NotEmpty(t, result.DebugPath)
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	completer := &fakeCompleter{body: redCatResponse}
	svc, _ := newService(t, completer, nil)

	_, err := svc.Generate(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyPrompt)
	require.Empty(t, completer.prompts)
}

func TestNew_RequiresCompleter(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

type slowCompleter struct {
	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *slowCompleter) Complete(context.Context, string) (openrouter.RawResponse, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.maxActive.Load()
		if n <= m || s.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return openrouter.RawResponse{Body: []byte(`{"choices":[]}`)}, nil
}

func TestGenerate_Serialised(t *testing.T) {
	completer := &slowCompleter{}
	svc, _ := newService(t, completer, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), "cat")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, completer.maxActive.Load())
}

func TestGenerate_CancelledWhileWaiting(t *testing.T) {
	svc, _ := newService(t, &fakeCompleter{body: redCatResponse}, nil)
	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Generate(ctx, "cat")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
