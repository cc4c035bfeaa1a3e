package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitByBytes(t *testing.T) {
	require.Equal(t, []string{"short"}, splitByBytes("short", 10))

	parts := splitByBytes(strings.Repeat("ab", 5), 4)
	require.Equal(t, []string{"abab", "abab", "ab"}, parts)

	parts = splitByBytes(strings.Repeat("ж", 5), 4)
	require.Equal(t, []string{"жж", "жж", "ж"}, parts)
}

func TestTruncateByBytes(t *testing.T) {
	require.Equal(t, "short", truncateByBytes("short", 10))
	require.Equal(t, "abc", truncateByBytes("abcdef", 3))
	require.Equal(t, "ж", truncateByBytes("жж", 3))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	require.EqualError(t, err, "telegram token is empty")

	_, err = New(Options{Token: "123:abc"})
	require.EqualError(t, err, "http client is nil")
}
