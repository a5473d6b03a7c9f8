// Package channel provides timeout-bounded request/response messaging with
// the in-page responder living in a browser tab.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dgnsrekt/price_agent/internal/types"
)

// Message actions understood by the remote responder.
const (
	ActionPing        = "ping"
	ActionGetPageInfo = "getPageInfo"
)

// Message is the structured request delivered to the responder.
type Message struct {
	Action string `json:"action"`
}

// Transport delivers a message to a target and returns the responder's raw
// payload. A nil payload with nil error means the responder answered without
// data. Transport-level failures are reported as errors after each call.
type Transport interface {
	Send(ctx context.Context, target string, msg Message) (json.RawMessage, error)
}

// ErrNoPayload marks a reply where the responder answered but sent no data.
var ErrNoPayload = errors.New("channel: responder answered without payload")

// Channel wraps a Transport with a per-request timeout and typed decoding.
type Channel struct {
	transport Transport
	timeout   time.Duration
}

func New(t Transport, timeout time.Duration) *Channel {
	return &Channel{transport: t, timeout: timeout}
}

// GetPageInfo asks the responder for the page's product data.
func (c *Channel) GetPageInfo(ctx context.Context, target string) (types.PageInfo, error) {
	raw, err := c.request(ctx, target, Message{Action: ActionGetPageInfo})
	if err != nil {
		return types.PageInfo{}, err
	}
	if len(raw) == 0 {
		return types.PageInfo{}, ErrNoPayload
	}

	var info types.PageInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return types.PageInfo{}, types.NewError(types.CodeChannelFailure, "invalid page info payload", err)
	}
	return info, nil
}

// Ping probes responder availability. The responder answers {pong:true} only
// once it is ready to handle getPageInfo; anything else is not-ready.
func (c *Channel) Ping(ctx context.Context, target string) error {
	raw, err := c.request(ctx, target, Message{Action: ActionPing})
	if err != nil {
		return err
	}

	var reply struct {
		Pong bool `json:"pong"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &reply) != nil || !reply.Pong {
		return types.NewError(types.CodeChannelFailure, "responder not ready", nil)
	}
	return nil
}

func (c *Channel) request(ctx context.Context, target string, msg Message) (json.RawMessage, error) {
	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.transport.Send(sendCtx, target, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			slog.Debug("channel request timed out", "target", target, "action", msg.Action)
			return nil, types.NewError(types.CodeChannelTimeout, "no answer within "+c.timeout.String(), err)
		}
		return nil, types.NewError(types.CodeChannelFailure, "transport failure", err)
	}
	return raw, nil
}
