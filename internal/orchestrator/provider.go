package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wanderchat/wanderchat/internal/gemini"
)

// CompletionProvider resolves a prompt to normalized generated text. A nil
// error with empty text means the provider answered structurally but had
// nothing to say; the orchestrator applies its own fallback.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError reports a non-OK completion response together with its body, so
// the send flow can tell quota exhaustion apart from other failures. Any other
// error from a provider is treated as a transport failure.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion request returned status %d", e.Status)
}

// HTTPProvider calls the backend proxy's /api/gemini endpoint, the same path
// the browser client takes.
type HTTPProvider struct {
	url        string
	httpClient *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		url:        strings.TrimRight(baseURL, "/") + "/api/gemini",
		httpClient: http.DefaultClient,
	}
}

func (p *HTTPProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var result gemini.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode proxy response: %w", err)
	}
	return result.GeneratedText, nil
}

// LocalProvider resolves completions in-process against the upstream client,
// used when the proxy and the send flow share a process. A non-JSON upstream
// body maps to a StatusError carrying the forwarded status, matching what the
// proxy endpoint would have returned over HTTP.
type LocalProvider struct {
	Generator gemini.Generator
}

func (p *LocalProvider) Complete(ctx context.Context, prompt string) (string, error) {
	res, err := p.Generator.GenerateContent(ctx, prompt)
	if err != nil {
		var nje *gemini.NonJSONError
		if errors.As(err, &nje) {
			return "", &StatusError{Status: nje.Status, Body: nje.RawText}
		}
		return "", err
	}
	return res.GeneratedText, nil
}
