package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) { return string(s), nil }

func TestGenerateContent_Normalizes(t *testing.T) {
	var gotAuth string
	var gotBody generateRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}]}}]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, staticTokens("tok-123"))
	res, err := client.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hi there", res.GeneratedText)
	require.Contains(t, res.Raw, "candidates")

	require.Equal(t, "Bearer tok-123", gotAuth)
	require.Len(t, gotBody.Contents, 1)
	require.Equal(t, "hello", gotBody.Contents[0].Parts[0].Text)
}

func TestGenerateContent_EmptyTextIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer upstream.Close()

	// JSON body, even an error payload, is a structural success with empty text.
	client := NewClient(upstream.URL, staticTokens("tok"))
	res, err := client.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	require.Empty(t, res.GeneratedText)
	require.Contains(t, res.Raw, "error")
}

func TestGenerateContent_NonJSONBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, staticTokens("tok"))
	_, err := client.GenerateContent(context.Background(), "hello")

	var nje *NonJSONError
	require.ErrorAs(t, err, &nje)
	require.Equal(t, http.StatusBadGateway, nje.Status)
	require.Equal(t, "<html>oops</html>", nje.RawText)
}

type failingTokens struct{}

func (failingTokens) Token(ctx context.Context) (string, error) {
	return "", context.DeadlineExceeded
}

func TestGenerateContent_TokenFailureIsFatal(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", failingTokens{})
	_, err := client.GenerateContent(context.Background(), "hello")
	require.Error(t, err)
}
