// Package server exposes the HTTP surface: the /api/gemini proxy endpoint,
// the authenticated chat API, and static serving of the built frontend with
// SPA fallback routing.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wanderchat/wanderchat/internal/auth"
	"github.com/wanderchat/wanderchat/internal/gemini"
	"github.com/wanderchat/wanderchat/internal/logger"
	"github.com/wanderchat/wanderchat/internal/orchestrator"
	"github.com/wanderchat/wanderchat/internal/session"
)

// Options wires the server's collaborators.
type Options struct {
	Generator gemini.Generator
	Store     session.Store
	// NewProvider builds the completion provider handed to each conversation
	// context's orchestrator.
	NewProvider func() orchestrator.CompletionProvider
	AuthSecret  string
	AllowGuest  bool
	StaticDir   string
}

// Server handles HTTP requests. Proxy requests are independent, uncorrelated
// executions; the chat API keeps one orchestrator per user so the offline-mode
// flags live exactly one conversation context wide.
type Server struct {
	opts   Options
	engine *gin.Engine

	mu       sync.Mutex
	contexts map[string]*orchestrator.Orchestrator
}

func New(opts Options) *Server {
	s := &Server{
		opts:     opts,
		contexts: make(map[string]*orchestrator.Orchestrator),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	api := engine.Group("/api")
	api.GET("/gemini", s.handleUsageHint)
	api.POST("/gemini", s.handleGenerate)

	chats := api.Group("/chats", auth.Middleware(opts.AuthSecret, opts.AllowGuest))
	chats.GET("", s.handleListChats)
	chats.GET("/:id", s.handleGetChat)
	chats.DELETE("/:id", s.handleDeleteChat)
	chats.POST("/send", s.handleSend)

	engine.NoRoute(s.handleStatic)

	s.engine = engine
	return s
}

// Handler returns the root http.Handler, handy for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.engine }

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

func (s *Server) handleUsageHint(c *gin.Context) {
	c.String(http.StatusOK, `POST JSON { "prompt": "your text" } to this endpoint.`)
}

// handleGenerate is the proxy endpoint. A structurally successful upstream
// call always yields 200 with the canonical {generatedText, raw} shape, even
// when generatedText is empty.
func (s *Server) handleGenerate(c *gin.Context) {
	var body struct {
		Prompt any `json:"prompt"`
	}
	// Bind errors fall through: a missing or unreadable body is the same
	// client error as an absent prompt.
	_ = c.ShouldBindJSON(&body)

	prompt := coercePrompt(body.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt in request body"})
		return
	}

	res, err := s.opts.Generator.GenerateContent(c.Request.Context(), prompt)
	if err != nil {
		var nje *gemini.NonJSONError
		if errors.As(err, &nje) {
			status := nje.Status
			if status == 0 {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": "Upstream returned non-JSON", "rawText": nje.RawText})
			return
		}
		logger.L.Error("generate failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// coercePrompt mirrors the loose input handling of the API contract: any JSON
// value is stringified, absent and empty values are rejected by the caller.
func coercePrompt(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (s *Server) handleListChats(c *gin.Context) {
	user := auth.CurrentUser(c)
	chats, err := s.opts.Store.List(c.Request.Context(), user.ID)
	if err != nil {
		logger.L.Error("failed to load chats", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chats"})
		return
	}
	if chats == nil {
		chats = []session.ChatSession{}
	}
	c.JSON(http.StatusOK, chats)
}

func (s *Server) handleGetChat(c *gin.Context) {
	user := auth.CurrentUser(c)
	chat, err := s.opts.Store.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		logger.L.Error("failed to load chat", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (s *Server) handleDeleteChat(c *gin.Context) {
	user := auth.CurrentUser(c)
	if err := s.opts.Store.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		logger.L.Error("failed to delete chat", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete chat"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSend(c *gin.Context) {
	user := auth.CurrentUser(c)

	var body struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
		Kind    string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	orch := s.contextFor(user.ID)
	chat, err := orch.Send(c.Request.Context(), user.ID, body.ChatID, body.Content, body.Kind)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is empty"})
	case errors.Is(err, orchestrator.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A reply is still pending"})
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
	case err != nil:
		logger.L.Error("send failed", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
	default:
		c.JSON(http.StatusOK, chat)
	}
}

// contextFor returns the user's conversation context, creating it on first
// use. The offline-mode flag therefore survives across requests but not
// across server restarts, matching the reload-resets-it behavior.
func (s *Server) contextFor(userID string) *orchestrator.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()
	orch, ok := s.contexts[userID]
	if !ok {
		orch = orchestrator.New(s.opts.NewProvider(), s.opts.Store)
		s.contexts[userID] = orch
	}
	return orch
}

// handleStatic serves built frontend assets, falling back to index.html for
// any non-API path so client-side routing works.
func (s *Server) handleStatic(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if s.opts.StaticDir == "" {
		c.Status(http.StatusNotFound)
		return
	}

	path := filepath.Join(s.opts.StaticDir, filepath.Clean("/"+c.Request.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.File(path)
		return
	}
	c.File(filepath.Join(s.opts.StaticDir, "index.html"))
}
