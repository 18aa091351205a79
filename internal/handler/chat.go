package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sakif/knowledge-hub/internal/engine"
	"github.com/sakif/knowledge-hub/internal/service"
)

// ChatHandler runs the streaming chat gateway: one long-lived websocket per
// client, each carrying many request/response cycles.
//
// SESSION STATE MACHINE (per connection):
//
//	Open → read a text frame → Processing (engine call) → Streaming-out
//	     → done frame → back to Open.
//
// Inbound messages are handled one at a time, strictly in arrival order —
// the loop below is deliberately serial, so the response to message A is
// fully emitted before message B is even read. Different connections are
// independent goroutines (net/http gives us one per connection) and share
// nothing but the snippet service and the engine.
//
// FRAMING:
// Inbound: one plain text frame per request.
// Outbound: JSON frames with an explicit type —
//
//	{"type":"chunk","content":"..."}   zero or more, in emission order
//	{"type":"done"}                    exactly one, ends the turn
//	{"type":"error","message":"..."}   engine failure; the session stays open
//
// The explicit done frame is the end-of-turn marker: clients never have to
// infer a turn boundary from connection idling.
type ChatHandler struct {
	engine  engine.Engine
	service *service.SnippetService
	config  ChatConfig
	logger  *slog.Logger
}

// ChatConfig adjusts gateway behaviour.
type ChatConfig struct {
	// Streaming selects incremental output. When false the engine is asked
	// for the complete reply, which is forwarded as a single chunk.
	Streaming bool

	// KnowledgeContext feeds the stored snippet collection to the engine as
	// contextual memory, prepended to each prompt.
	KnowledgeContext bool
}

// chatFrame is the outbound wire format.
type chatFrame struct {
	Type    string `json:"type"` // "chunk", "done" or "error"
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// upgrader turns the HTTP request into a websocket. CheckOrigin allows all
// origins; cross-origin policy is the deployment proxy's job, same as CORS
// on the REST routes.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(eng engine.Engine, svc *service.SnippetService, cfg ChatConfig, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		engine:  eng,
		service: svc,
		config:  cfg,
		logger:  logger,
	}
}

// HandleChat is the websocket endpoint (GET /ws with an Upgrade header).
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	h.logger.Info("chat session opened", slog.String("remote", conn.RemoteAddr().String()))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// Client disconnect (or transport failure) — tear down quietly.
			// There is nobody left to report an error to.
			h.logger.Info("chat session closed", slog.String("reason", err.Error()))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if !h.handleTurn(r.Context(), conn, string(data)) {
			return
		}
	}
}

// handleTurn runs one request/response cycle. It returns false when the
// transport is gone and the session loop should stop; engine failures are
// reported in-band and return true so the session survives them.
func (h *ChatHandler) handleTurn(parent context.Context, conn *websocket.Conn, message string) bool {
	// Each turn gets its own cancellable context: when a write to the
	// client fails mid-stream, cancel aborts the in-flight engine call
	// instead of letting it run to completion for nobody.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	prompt := h.buildPrompt(ctx, message)

	// writeFailed distinguishes "engine broke" (stay open, report in-band)
	// from "client went away" (tear down, report to no one).
	writeFailed := false
	emit := func(fragment string) error {
		if err := conn.WriteJSON(chatFrame{Type: "chunk", Content: fragment}); err != nil {
			writeFailed = true
			cancel()
			return err
		}
		return nil
	}

	var err error
	if h.config.Streaming {
		err = h.engine.StreamComplete(ctx, prompt, emit)
	} else {
		var reply string
		reply, err = h.engine.Complete(ctx, prompt)
		if err == nil {
			err = emit(reply)
		}
	}

	if writeFailed {
		h.logger.Info("chat session closed mid-response")
		return false
	}
	if err != nil {
		// Engine failure: an in-band error frame, then back to Open. The
		// connection is healthy, so dropping it would punish the client
		// for the engine's problem.
		h.logger.Warn("reasoning engine failed", slog.String("error", err.Error()))
		return conn.WriteJSON(chatFrame{
			Type:    "error",
			Message: "reasoning engine request failed, try again",
		}) == nil
	}

	return conn.WriteJSON(chatFrame{Type: "done"}) == nil
}

// buildPrompt optionally prepends the knowledge collection to the user's
// message, so the engine answers with the curated snippets in view. A
// storage failure here degrades to chatting without context — losing the
// preamble is better than losing the turn.
func (h *ChatHandler) buildPrompt(ctx context.Context, message string) string {
	if !h.config.KnowledgeContext {
		return message
	}

	snippets, err := h.service.List(ctx)
	if err != nil {
		h.logger.Warn("knowledge context unavailable", slog.String("error", err.Error()))
		return message
	}
	if len(snippets) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString("Reference knowledge:\n")
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(s.Title)
		if s.Content != "" {
			b.WriteString(": ")
			b.WriteString(s.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(message)
	return b.String()
}
