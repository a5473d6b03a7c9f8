package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/dgnsrekt/price_agent/internal/cdp"
)

// evalEnvelope is the wire shape the injected IIFE returns. Transport-level
// JS failures ride in error_message; responder payloads ride in data.
type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// CDPTransport delivers messages by evaluating an envelope-wrapped call to
// the in-page responder over a raw CDP session. Sessions are attached
// lazily, cached per target, and reset on failure so the next send attaches
// fresh.
type CDPTransport struct {
	client *cdp.Client

	mu       sync.Mutex
	sessions map[string]string // target ID -> CDP session ID
}

func NewCDPTransport(client *cdp.Client) *CDPTransport {
	return &CDPTransport{client: client, sessions: make(map[string]string)}
}

func (t *CDPTransport) Send(ctx context.Context, targetID string, msg Message) (json.RawMessage, error) {
	sessionID, err := t.session(ctx, targetID)
	if err != nil {
		return nil, err
	}

	raw, err := t.client.Evaluate(ctx, sessionID, responderJS(msg))
	if err != nil {
		t.forgetSession(targetID)
		return nil, err
	}

	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("channel: invalid envelope: %w", err)
	}
	if !env.OK {
		return nil, fmt.Errorf("channel: responder error: %s", env.ErrorMessage)
	}
	return env.Data, nil
}

// Release detaches the cached session for a target, if any. Best-effort:
// called when the owning tab is being destroyed anyway.
func (t *CDPTransport) Release(ctx context.Context, targetID string) {
	t.mu.Lock()
	sessionID, ok := t.sessions[targetID]
	delete(t.sessions, targetID)
	t.mu.Unlock()
	if !ok {
		return
	}
	if err := t.client.DetachFromTarget(ctx, sessionID); err != nil {
		slog.Debug("detach cleanup failed", "target_id", targetID, "error", err)
	}
}

func (t *CDPTransport) session(ctx context.Context, targetID string) (string, error) {
	t.mu.Lock()
	sessionID, ok := t.sessions[targetID]
	t.mu.Unlock()
	if ok {
		return sessionID, nil
	}

	sessionID, err := t.client.AttachToTarget(ctx, target.ID(targetID))
	if err != nil {
		return "", fmt.Errorf("channel: attach to target: %w", err)
	}

	t.mu.Lock()
	t.sessions[targetID] = sessionID
	t.mu.Unlock()
	slog.Debug("channel session attached", "target_id", targetID, "session_id", sessionID)
	return sessionID, nil
}

func (t *CDPTransport) forgetSession(targetID string) {
	t.mu.Lock()
	delete(t.sessions, targetID)
	t.mu.Unlock()
}

// responderJS builds the IIFE evaluated in the page. The responder is a
// black box installed by the page side; all this does is hand it the
// message and wrap the reply in the envelope.
func responderJS(msg Message) string {
	return `(async function(){
try {
var responder = window.__priceAgent;
if (!responder || typeof responder.handleMessage !== "function") {
return JSON.stringify({ok:false,error_message:"responder not installed"});
}
var data = await responder.handleMessage(` + jsJSON(msg) + `);
if (data === undefined || data === null) {
return JSON.stringify({ok:true});
}
return JSON.stringify({ok:true,data:data});
} catch (err) {
return JSON.stringify({ok:false,error_message:String(err && err.message || err)});
}
})()`
}

func jsJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
