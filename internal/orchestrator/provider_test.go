package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wanderchat/wanderchat/internal/gemini"
)

func TestHTTPProvider_OK(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/gemini", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generatedText":"Hi there","raw":{}}`))
	}))
	defer proxy.Close()

	text, err := NewHTTPProvider(proxy.URL).Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hi there", text)
}

func TestHTTPProvider_NonOK(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"RESOURCE_EXHAUSTED"}`))
	}))
	defer proxy.Close()

	_, err := NewHTTPProvider(proxy.URL).Complete(context.Background(), "hello")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusTooManyRequests, se.Status)
	require.Contains(t, se.Body, "RESOURCE_EXHAUSTED")
}

func TestHTTPProvider_TransportError(t *testing.T) {
	// Nothing listens here; the error must not be a StatusError.
	_, err := NewHTTPProvider("http://127.0.0.1:1").Complete(context.Background(), "hello")
	require.Error(t, err)
	var se *StatusError
	require.False(t, errors.As(err, &se))
}

type stubGenerator struct {
	res *gemini.Result
	err error
}

func (g stubGenerator) GenerateContent(ctx context.Context, prompt string) (*gemini.Result, error) {
	return g.res, g.err
}

func TestLocalProvider_OK(t *testing.T) {
	p := &LocalProvider{Generator: stubGenerator{res: &gemini.Result{GeneratedText: "hey"}}}
	text, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hey", text)
}

func TestLocalProvider_NonJSONMapsToStatusError(t *testing.T) {
	p := &LocalProvider{Generator: stubGenerator{err: &gemini.NonJSONError{Status: 502, RawText: "<html>"}}}
	_, err := p.Complete(context.Background(), "hello")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 502, se.Status)
	require.Equal(t, "<html>", se.Body)
}
