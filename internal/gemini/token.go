package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes required by the generative-language endpoint.
var scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/generative-language",
}

// TokenSource yields short-lived bearer tokens for the upstream API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type serviceAccountSource struct {
	ts oauth2.TokenSource
}

// NewServiceAccountSource builds a TokenSource from a service-account JSON
// key file. Tokens are cached and refreshed by the underlying oauth2 source.
func NewServiceAccountSource(ctx context.Context, keyFile string) (TokenSource, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return &serviceAccountSource{ts: creds.TokenSource}, nil
}

func (s *serviceAccountSource) Token(ctx context.Context) (string, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return "", fmt.Errorf("obtain access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("no access token from service account")
	}
	return tok.AccessToken, nil
}
