// Package gemini calls the upstream generative-language endpoint and
// normalizes its heterogeneous response shapes into a canonical result.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wanderchat/wanderchat/internal/logger"
)

// Result is the canonical shape returned for every structurally successful
// upstream call. GeneratedText may be empty; semantic absence of an answer is
// not a transport error.
type Result struct {
	GeneratedText string         `json:"generatedText"`
	Raw           map[string]any `json:"raw"`
}

// NonJSONError reports an upstream body that failed JSON parsing. It carries
// the upstream status so the proxy can forward it, distinguishing "upstream
// broke its own contract" from "we errored".
type NonJSONError struct {
	Status  int
	RawText string
}

func (e *NonJSONError) Error() string {
	return fmt.Sprintf("upstream returned non-JSON body (status %d)", e.Status)
}

// Generator is the subset of Client the HTTP layer depends on; it is easy to
// mock in tests.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (*Result, error)
}

// Client talks to the generative-language endpoint with bearer credentials.
type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(endpoint string, tokens TokenSource) *Client {
	return &Client{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: http.DefaultClient,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GenerateContent forwards a prompt upstream and normalizes the response.
// The body is read as text first and parsed afterwards, so a non-JSON body
// surfaces as a NonJSONError rather than a decode failure.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (*Result, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(text, &raw); err != nil {
		logger.L.Error("upstream did not return JSON", "status", resp.StatusCode, "body", truncate(string(text), 1000))
		return nil, &NonJSONError{Status: resp.StatusCode, RawText: string(text)}
	}

	logger.L.Debug("upstream response", "status", resp.StatusCode, "raw", raw)

	return &Result{GeneratedText: ExtractText(raw), Raw: raw}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
