package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_SetsAppHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(Options{
		Timeout: 5 * time.Second,
		Referer: "https://example.com/app",
		Title:   "Image Generator App",
	})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "https://example.com/app", got.Get("HTTP-Referer"))
	require.Equal(t, "Image Generator App", got.Get("X-Title"))
}

func TestNew_NoAppHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	resp, err := New(Options{}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, got.Get("HTTP-Referer"))
	require.Empty(t, got.Get("X-Title"))
}

func TestNew_DefaultTimeout(t *testing.T) {
	require.Equal(t, 180*time.Second, New(Options{}).Timeout)
	require.Equal(t, 3*time.Second, New(Options{Timeout: 3 * time.Second}).Timeout)
}
