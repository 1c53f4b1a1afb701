// Package xrpl is the rippled websocket client behind the payout engine's
// ledger interface. It speaks the node's JSON-RPC-over-websocket protocol:
// requests carry a client-chosen id, responses echo it back, and the read
// loop matches them up so independent queries can be in flight at once.
//
// Connection management beyond dial and close is deliberately thin; retry
// policy lives with the callers.
package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/xrpdist/xrpdist/internal/payout"
)

// Wallet identifies the sender. The secret is only ever forwarded to the
// node's sign-and-submit command, never persisted or logged.
type Wallet struct {
	Address string
	Secret  string
}

// RPCError is an error response from the node.
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

type reply struct {
	result json.RawMessage
	err    error
}

// Client is a rippled websocket connection.
type Client struct {
	conn   *websocket.Conn
	wallet Wallet

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan reply
	closed  bool
}

var _ payout.Ledger = (*Client)(nil)

// Dial connects to the node and starts the response reader.
func Dial(ctx context.Context, endpoint string, wallet Wallet) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	c := &Client{
		conn:    conn,
		wallet:  wallet,
		pending: make(map[int64]chan reply),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection; outstanding calls fail.
func (c *Client) Close() error {
	return c.conn.Close()
}

type envelope struct {
	ID           int64           `json:"id"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.failAll(fmt.Errorf("connection lost: %w", err))
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[env.ID]
		if ok {
			delete(c.pending, env.ID)
		}
		c.mu.Unlock()
		if !ok {
			// Unsolicited message (subscription stream etc). Not ours.
			continue
		}

		if env.Status == "error" {
			ch <- reply{err: &RPCError{Code: env.Error, Message: env.ErrorMessage}}
			continue
		}
		ch <- reply{result: env.Result}
	}
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		ch <- reply{err: err}
		delete(c.pending, id)
	}
}

// call sends one request and waits for its response.
func (c *Client) call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	id := c.nextID.Add(1)

	req := make(map[string]any, len(params)+2)
	for k, v := range params {
		req[k] = v
	}
	req["id"] = id
	req["command"] = command

	ch := make(chan reply, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: connection closed", command)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", command, r.err)
		}
		return r.result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// markerParam passes continuation markers back to the node unchanged.
// Markers are opaque; object-shaped ones must round-trip as JSON, not as a
// quoted string.
func markerParam(marker string) any {
	if json.Valid([]byte(marker)) {
		return json.RawMessage(marker)
	}
	return marker
}

// markerString flattens a returned marker to the opaque string the caller
// hands back on the next page request.
func markerString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
