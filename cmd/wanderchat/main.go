package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wanderchat/wanderchat/internal/config"
	"github.com/wanderchat/wanderchat/internal/gemini"
	"github.com/wanderchat/wanderchat/internal/logger"
	"github.com/wanderchat/wanderchat/internal/orchestrator"
	"github.com/wanderchat/wanderchat/internal/server"
	"github.com/wanderchat/wanderchat/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	if _, err := os.Stat(cfg.Gemini.ServiceAccountFile); err != nil {
		logger.L.Error("service account file not found", "path", cfg.Gemini.ServiceAccountFile)
		os.Exit(1)
	}

	ctx := context.Background()
	tokens, err := gemini.NewServiceAccountSource(ctx, cfg.Gemini.ServiceAccountFile)
	if err != nil {
		logger.L.Error("failed to build token source", "error", err)
		os.Exit(1)
	}
	client := gemini.NewClient(cfg.Gemini.Endpoint, tokens)

	var store session.Store
	sqlStore, err := session.OpenSQLStore(cfg.Storage.Path)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory chat store", "error", err)
		store = session.NewMemStore()
	} else {
		defer sqlStore.Close()
		store = sqlStore
	}

	// Each conversation context gets its own provider. With a proxy base URL
	// configured, sends go through the HTTP proxy endpoint the way the
	// browser client does; otherwise they use the upstream client directly.
	newProvider := func() orchestrator.CompletionProvider {
		if cfg.Gemini.ProxyBaseURL != "" {
			return orchestrator.NewHTTPProvider(cfg.Gemini.ProxyBaseURL)
		}
		return &orchestrator.LocalProvider{Generator: client}
	}

	srv := server.New(server.Options{
		Generator:   client,
		Store:       store,
		NewProvider: newProvider,
		AuthSecret:  cfg.Auth.Secret,
		AllowGuest:  cfg.Auth.AllowGuest,
		StaticDir:   cfg.Server.StaticDir,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", addr)
	if err := srv.Run(addr); err != nil {
		logger.L.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
