// Package cdp is a minimal Chrome DevTools Protocol client used by the
// messaging transport. It evaluates JS on browser targets without chromedp's
// heavy session initialisation (SetAutoAttach, SetDiscoverTargets,
// Page.Enable, DOM.Enable, etc.); those commands destabilise some browser
// builds when service workers are auto-attached.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client speaks CDP over the browser-level WebSocket endpoint.
type Client struct {
	httpBase string // e.g. "http://127.0.0.1:9220"

	mu   sync.Mutex
	conn net.Conn
	seq  atomic.Int64

	pending   map[int64]chan json.RawMessage
	pendingMu sync.Mutex
}

func NewClient(httpBase string) *Client {
	return &Client{
		httpBase: strings.TrimRight(httpBase, "/"),
		pending:  make(map[int64]chan json.RawMessage),
	}
}

// Connect dials the browser-level WebSocket endpoint.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	wsURL, err := c.browserWSURL(ctx)
	if err != nil {
		return fmt.Errorf("cdp: browser ws url: %w", err)
	}

	slog.Debug("cdp connecting", "ws_url", wsURL)
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("cdp: dial: %w", err)
	}

	c.conn = conn
	c.pending = make(map[int64]chan json.RawMessage)
	go c.readLoop()
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// readLoop processes incoming messages and dispatches responses to waiters.
// A response arriving after its waiter gave up has no pending channel left
// and is discarded.
func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			slog.Debug("cdp read loop exit", "error", err)
			c.closeAllPending()
			return
		}

		var msg struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.ID > 0 {
			c.pendingMu.Lock()
			ch, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- json.RawMessage(data)
			}
		}
	}
}

func (c *Client) closeAllPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) deletePending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// sendRaw marshals an envelope, sends it over the WebSocket, and waits for
// the response keyed by the given id.
func (c *Client) sendRaw(ctx context.Context, id int64, envelope any) (json.RawMessage, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("cdp: not connected")
	}

	ch := make(chan json.RawMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	data, err := json.Marshal(envelope)
	if err != nil {
		c.deletePending(id)
		return nil, fmt.Errorf("cdp: marshal: %w", err)
	}

	c.mu.Lock()
	err = wsutil.WriteClientText(conn, data)
	c.mu.Unlock()
	if err != nil {
		c.deletePending(id)
		return nil, fmt.Errorf("cdp: send: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("cdp: connection closed")
		}
		return resp, nil
	case <-ctx.Done():
		c.deletePending(id)
		return nil, ctx.Err()
	}
}

// send sends a CDP command, optionally on a flattened session, and unwraps
// the inner result envelope.
func (c *Client) send(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	id := c.seq.Add(1)
	req := struct {
		ID        int64  `json:"id"`
		Method    string `json:"method"`
		SessionID string `json:"sessionId,omitempty"`
		Params    any    `json:"params,omitempty"`
	}{ID: id, Method: method, SessionID: sessionID, Params: params}

	resp, err := c.sendRaw(ctx, id, req)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return resp, nil
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("cdp: %s: %s", method, envelope.Error.Message)
	}
	return envelope.Result, nil
}

// CreateTarget opens a new page target for url without focusing it.
func (c *Client) CreateTarget(ctx context.Context, url string) (target.ID, error) {
	params := struct {
		URL        string `json:"url"`
		Background bool   `json:"background"`
	}{URL: url, Background: true}

	raw, err := c.send(ctx, "", "Target.createTarget", params)
	if err != nil {
		return "", err
	}

	var resp struct {
		TargetID string `json:"targetId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("cdp: unmarshal createTarget: %w", err)
	}
	if resp.TargetID == "" {
		return "", fmt.Errorf("cdp: createTarget returned empty target id")
	}
	return target.ID(resp.TargetID), nil
}

// CloseTarget closes a page target.
func (c *Client) CloseTarget(ctx context.Context, id target.ID) error {
	params := struct {
		TargetID string `json:"targetId"`
	}{TargetID: string(id)}

	_, err := c.send(ctx, "", "Target.closeTarget", params)
	return err
}

// AttachToTarget attaches a flat session to the given target.
func (c *Client) AttachToTarget(ctx context.Context, id target.ID) (string, error) {
	params := struct {
		TargetID string `json:"targetId"`
		Flatten  bool   `json:"flatten"`
	}{TargetID: string(id), Flatten: true}

	raw, err := c.send(ctx, "", "Target.attachToTarget", params)
	if err != nil {
		return "", err
	}

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("cdp: unmarshal attach: %w", err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("cdp: attach returned empty session id")
	}
	return resp.SessionID, nil
}

// DetachFromTarget detaches from a session without closing the target.
func (c *Client) DetachFromTarget(ctx context.Context, sessionID string) error {
	params := struct {
		SessionID string `json:"sessionId"`
	}{SessionID: sessionID}

	_, err := c.send(ctx, "", "Target.detachFromTarget", params)
	return err
}

// Evaluate runs JS on the given session and returns the string result.
func (c *Client) Evaluate(ctx context.Context, sessionID, js string) (string, error) {
	params := struct {
		Expression    string `json:"expression"`
		ReturnByValue bool   `json:"returnByValue"`
		AwaitPromise  bool   `json:"awaitPromise"`
	}{Expression: js, ReturnByValue: true, AwaitPromise: true}

	raw, err := c.send(ctx, sessionID, "Runtime.evaluate", params)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result struct {
			Value json.RawMessage `json:"value"`
			Type  string          `json:"type"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("cdp: unmarshal eval: %w", err)
	}
	if resp.ExceptionDetails != nil {
		return "", fmt.Errorf("cdp: eval exception: %s", resp.ExceptionDetails.Text)
	}

	// String results come back as JSON-encoded strings.
	var s string
	if err := json.Unmarshal(resp.Result.Value, &s); err != nil {
		return string(resp.Result.Value), nil
	}
	return s, nil
}

// ListTargets fetches open targets via the HTTP /json/list endpoint.
func (c *Client) ListTargets(ctx context.Context) ([]*target.Info, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, c.httpBase+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cdp: /json/list: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	out := make([]*target.Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, &target.Info{
			TargetID: target.ID(e.ID),
			Type:     e.Type,
			Title:    e.Title,
			URL:      e.URL,
		})
	}
	return out, nil
}

// browserWSURL fetches the WebSocket debugger URL from /json/version.
func (c *Client) browserWSURL(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpBase+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cdp: /json/version: HTTP %d", resp.StatusCode)
	}

	var info struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("empty webSocketDebuggerUrl")
	}
	return info.WebSocketDebuggerURL, nil
}
