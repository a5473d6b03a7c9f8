package channel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/price_agent/internal/types"
)

type scriptedTransport struct {
	calls   int
	payload json.RawMessage
	err     error
	hang    bool
	lastMsg Message
}

func (s *scriptedTransport) Send(ctx context.Context, target string, msg Message) (json.RawMessage, error) {
	s.calls++
	s.lastMsg = msg
	if s.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.payload, s.err
}

func TestGetPageInfoDecodesPayload(t *testing.T) {
	tr := &scriptedTransport{payload: json.RawMessage(`{"title":"Widget","price":"$29.99","url":"https://example.com"}`)}
	ch := New(tr, time.Second)

	info, err := ch.GetPageInfo(context.Background(), "tab-1")
	if err != nil {
		t.Fatalf("GetPageInfo: %v", err)
	}
	if info.Title != "Widget" || info.Price != "$29.99" {
		t.Fatalf("info = %+v", info)
	}
	if tr.lastMsg.Action != ActionGetPageInfo {
		t.Fatalf("sent action %q", tr.lastMsg.Action)
	}
}

func TestGetPageInfoNoPayload(t *testing.T) {
	ch := New(&scriptedTransport{}, time.Second)
	_, err := ch.GetPageInfo(context.Background(), "tab-1")
	if !errors.Is(err, ErrNoPayload) {
		t.Fatalf("err = %v, want ErrNoPayload", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	ch := New(&scriptedTransport{hang: true}, 10*time.Millisecond)
	_, err := ch.GetPageInfo(context.Background(), "tab-1")

	var coded *types.CodedError
	if !errors.As(err, &coded) || coded.Code != types.CodeChannelTimeout {
		t.Fatalf("err = %v, want CHANNEL_TIMEOUT", err)
	}
}

func TestRequestTransportFailure(t *testing.T) {
	ch := New(&scriptedTransport{err: errors.New("socket closed")}, time.Second)
	_, err := ch.GetPageInfo(context.Background(), "tab-1")

	var coded *types.CodedError
	if !errors.As(err, &coded) || coded.Code != types.CodeChannelFailure {
		t.Fatalf("err = %v, want CHANNEL_FAILURE", err)
	}
}

func TestPing(t *testing.T) {
	ready := &scriptedTransport{payload: json.RawMessage(`{"pong":true}`)}
	if err := New(ready, time.Second).Ping(context.Background(), "tab-1"); err != nil {
		t.Fatalf("Ping on ready responder: %v", err)
	}
	if ready.lastMsg.Action != ActionPing {
		t.Fatalf("sent action %q", ready.lastMsg.Action)
	}

	notReady := &scriptedTransport{payload: json.RawMessage(`{}`)}
	if err := New(notReady, time.Second).Ping(context.Background(), "tab-1"); err == nil {
		t.Fatal("Ping should fail when responder is not ready")
	}

	silent := &scriptedTransport{}
	if err := New(silent, time.Second).Ping(context.Background(), "tab-1"); err == nil {
		t.Fatal("Ping should fail on empty reply")
	}
}

func TestResponderJSCarriesMessage(t *testing.T) {
	js := responderJS(Message{Action: ActionGetPageInfo})
	if !strings.Contains(js, `{"action":"getPageInfo"}`) {
		t.Fatalf("responder JS lost the message: %s", js)
	}
	if !strings.Contains(js, "window.__priceAgent") {
		t.Fatalf("responder JS missing responder hook: %s", js)
	}
}
