// Package orchestrator implements the send-message flow: append the user
// message, resolve a reply (upstream completion or offline fallback), append
// exactly one assistant message, and persist the session around both steps.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/wanderchat/wanderchat/internal/logger"
	"github.com/wanderchat/wanderchat/internal/offline"
	"github.com/wanderchat/wanderchat/internal/session"
)

// FSM states and triggers for the send flow. Only one request is in flight
// per conversation context; a second send while awaiting a reply is rejected,
// not queued.
var (
	stateIdle     stateless.State = "Idle"
	stateAwaiting stateless.State = "AwaitingReply"

	triggerSend    stateless.Trigger = "Send"
	triggerResolve stateless.Trigger = "Resolved"
)

// One-time warning texts shown the first time the flow drops to offline mode.
const (
	quotaWarning   = "⚠️ Token/quota exceeded — switching to offline mode."
	networkWarning = "⚠️ Token/quota / network error — switching to offline mode."
)

var (
	// ErrBusy is returned while a previous send is still awaiting its reply.
	ErrBusy = errors.New("a send is already in flight")
	// ErrEmptyContent is returned for a blank user message.
	ErrEmptyContent = errors.New("message content is empty")
)

// Orchestrator drives sends for one conversation context (one user's tab).
// It owns the offline-mode and warning flags; neither is shared across
// contexts, and offline mode never resets for the lifetime of the context.
type Orchestrator struct {
	provider CompletionProvider
	store    session.Store
	fsm      *stateless.StateMachine

	offlineMode  bool
	warningShown bool
}

func New(provider CompletionProvider, store session.Store) *Orchestrator {
	fsm := stateless.NewStateMachine(stateIdle)
	fsm.Configure(stateIdle).Permit(triggerSend, stateAwaiting)
	fsm.Configure(stateAwaiting).Permit(triggerResolve, stateIdle)

	return &Orchestrator{
		provider: provider,
		store:    store,
		fsm:      fsm,
	}
}

// Send runs one user submission through the flow and returns the updated
// session. chatID may be empty, in which case a new session is created with a
// title derived from the content. Persistence failures are logged, never
// fatal: the in-memory session remains the source of truth for the reply.
func (o *Orchestrator) Send(ctx context.Context, userID, chatID, content, kind string) (*session.ChatSession, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if kind == "" {
		kind = session.KindText
	}

	if err := o.fsm.FireCtx(ctx, triggerSend); err != nil {
		return nil, ErrBusy
	}
	defer func() {
		if err := o.fsm.FireCtx(ctx, triggerResolve); err != nil {
			logger.L.Warn("send flow did not return to idle", "error", err)
		}
	}()

	chat, err := o.loadOrCreate(ctx, userID, chatID, content)
	if err != nil {
		return nil, err
	}

	chat.Append(session.NewMessage(content, true, kind))
	if err := o.store.Upsert(ctx, chat); err != nil {
		logger.L.Error("failed to persist user message", "chat", chat.ID, "error", err)
	}

	reply := o.resolveReply(ctx, content)

	chat.Append(session.NewMessage(reply, false, session.KindText))
	if err := o.store.Upsert(ctx, chat); err != nil {
		logger.L.Error("failed to persist assistant message", "chat", chat.ID, "error", err)
	}

	return chat, nil
}

// Offline reports whether the context has dropped to offline mode.
func (o *Orchestrator) Offline() bool { return o.offlineMode }

func (o *Orchestrator) loadOrCreate(ctx context.Context, userID, chatID, content string) (*session.ChatSession, error) {
	if chatID == "" {
		return &session.ChatSession{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  session.DeriveTitle(content),
		}, nil
	}
	return o.store.Get(ctx, userID, chatID)
}

// resolveReply always returns a non-empty reply; every failure path resolves
// to text rather than an error surfaced to the caller.
func (o *Orchestrator) resolveReply(ctx context.Context, prompt string) string {
	if o.offlineMode {
		return offline.Reply(prompt)
	}

	text, err := o.provider.Complete(ctx, prompt)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			logger.L.Error("completion returned non-OK", "status", se.Status, "body", se.Body)
			if isQuotaExhausted(se) {
				return o.enterOfflineMode(prompt, quotaWarning)
			}
			// A one-off failure: no mode change, distinct from the provider
			// path failing.
			return fmt.Sprintf("Error fetching AI: %d", se.Status)
		}
		logger.L.Error("completion request failed", "error", err)
		return o.enterOfflineMode(prompt, networkWarning)
	}

	if strings.TrimSpace(text) == "" {
		logger.L.Warn("no usable text in completion response, using offline fallback")
		return offline.Reply(prompt)
	}
	return text
}

// enterOfflineMode sets the sticky offline flag. The first entry yields a
// one-time warning as this turn's reply; later entries go straight to the
// canned responder.
func (o *Orchestrator) enterOfflineMode(prompt, warning string) string {
	o.offlineMode = true
	if !o.warningShown {
		o.warningShown = true
		return warning
	}
	return offline.Reply(prompt)
}

func isQuotaExhausted(se *StatusError) bool {
	return se.Status == 429 ||
		strings.Contains(se.Body, "RESOURCE_EXHAUSTED") ||
		strings.Contains(se.Body, "quota")
}
