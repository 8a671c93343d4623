// Package client implements the budget synchronization agent: a JSON-RPC
// websocket client with automatic reconnection, and a Session that keeps a
// local replica of one budget with undo/redo support.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/bradenmacdonald/ratio/internal/transport/ws"
)

var (
	// ErrDisconnected is returned by Call while the websocket is down;
	// dispatches fail fast rather than queueing offline.
	ErrDisconnected = errors.New("client: not connected")
	// ErrUnauthorized means the server rejected the access token. The
	// client does not retry; a new token is needed.
	ErrUnauthorized = errors.New("client: unauthorized")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client: closed")
)

// Options configures a Client.
type Options struct {
	// URL of the RPC endpoint, e.g. "ws://localhost:8080/budget-rpc".
	URL string
	// Token is the access token, passed as the token query parameter.
	Token  string
	Logger *slog.Logger

	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// RewatchDelay is how long to wait after a reconnect before re-issuing
	// the watch call. Sending immediately after the socket opens tends to
	// get lost.
	RewatchDelay time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}
	if out.MinBackoff <= 0 {
		out.MinBackoff = 500 * time.Millisecond
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = 30 * time.Second
	}
	if out.RewatchDelay <= 0 {
		out.RewatchDelay = 100 * time.Millisecond
	}
	return out
}

type pendingCall struct {
	ch chan ws.Response
}

// Client is a JSON-RPC websocket client. It correlates calls with responses,
// dispatches notifications, and transparently reconnects with exponential
// backoff when the connection drops.
type Client struct {
	log  *slog.Logger
	opts Options

	onNotify  func(method string, params json.RawMessage)
	onConnect func(ctx context.Context)

	mu      sync.Mutex
	sock    *websocket.Conn
	pending map[int64]pendingCall
	nextID  int64
	closed  bool
}

// New creates a Client. OnNotification and OnConnect must be set before
// Connect.
func New(opts Options) *Client {
	o := (&opts).withDefaults()
	return &Client{
		log:     o.Logger.With("component", "rpc_client"),
		opts:    o,
		pending: make(map[int64]pendingCall),
	}
}

// OnNotification registers the handler for server-push notifications.
func (c *Client) OnNotification(fn func(method string, params json.RawMessage)) {
	c.onNotify = fn
}

// OnConnect registers a callback invoked after every successful connection,
// including reconnects, once the server has signalled connection_ready.
func (c *Client) OnConnect(fn func(ctx context.Context)) {
	c.onConnect = fn
}

// Connect dials the server and starts the read loop. It returns once the
// server has signalled connection_ready.
func (c *Client) Connect(ctx context.Context) error {
	sock, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sock = sock
	c.mu.Unlock()

	go c.readLoop(sock)
	if c.onConnect != nil {
		c.onConnect(ctx)
	}
	return nil
}

// Close shuts the client down permanently.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	sock := c.sock
	c.sock = nil
	c.failPendingLocked()
	c.mu.Unlock()

	if sock != nil {
		return sock.Close(websocket.StatusNormalClosure, "")
	}
	return nil
}

// Connected reports whether the websocket is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock != nil
}

// Call invokes a JSON-RPC method and decodes the result into result when it
// is non-nil. It fails immediately with ErrDisconnected while the connection
// is down.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sock := c.sock
	if sock == nil {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.nextID++
	id := c.nextID
	call := pendingCall{ch: make(chan ws.Response, 1)}
	c.pending[id] = call
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	var rawParams json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("client: marshal params: %w", err)
		}
		rawParams = b
	}
	req := ws.Request{
		Jsonrpc: ws.Version,
		Method:  method,
		Params:  rawParams,
		ID:      json.RawMessage(fmt.Sprintf("%d", id)),
	}
	if err := wsjson.Write(ctx, sock, req); err != nil {
		return fmt.Errorf("client: send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp, ok := <-call.ch:
		if !ok {
			return ErrDisconnected
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("client: decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

// dial opens the websocket and waits for the connection_ready notification.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	if c.opts.Token != "" {
		q := u.Query()
		q.Set("token", c.opts.Token)
		u.RawQuery = q.Encode()
	}

	sock, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}

	// The first frame is either connection_ready or the literal
	// "Unauthorized" text for a bad token.
	_, data, err := sock.Read(ctx)
	if err != nil {
		sock.Close(websocket.StatusNormalClosure, "")
		return nil, fmt.Errorf("client: handshake: %w", err)
	}
	if string(data) == "Unauthorized" {
		sock.Close(websocket.StatusNormalClosure, "")
		return nil, ErrUnauthorized
	}
	var n ws.Notification
	if err := json.Unmarshal(data, &n); err != nil || n.Method != ws.NotifyConnectionReady {
		sock.Close(websocket.StatusProtocolError, "expected connection_ready")
		return nil, fmt.Errorf("client: unexpected handshake frame %q", data)
	}
	return sock, nil
}

func (c *Client) readLoop(sock *websocket.Conn) {
	for {
		_, data, err := sock.Read(context.Background())
		if err != nil {
			c.handleDisconnect(sock, err)
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	// Responses carry an id; notifications carry a method.
	var resp ws.Response
	if err := json.Unmarshal(data, &resp); err == nil && len(resp.ID) > 0 && string(resp.ID) != "null" {
		var id int64
		if err := json.Unmarshal(resp.ID, &id); err != nil {
			c.log.Warn("response with unexpected id", slog.String("id", string(resp.ID)))
			return
		}
		c.mu.Lock()
		call, ok := c.pending[id]
		if ok {
			// Claim the call so a concurrent disconnect cannot close
			// the channel under us.
			delete(c.pending, id)
		}
		c.mu.Unlock()
		if ok {
			call.ch <- resp
		}
		return
	}

	var n ws.Notification
	if err := json.Unmarshal(data, &n); err != nil || n.Method == "" {
		c.log.Warn("unparseable frame", slog.String("data", string(data)))
		return
	}
	if c.onNotify != nil {
		c.onNotify(n.Method, n.Params)
	}
}

func (c *Client) handleDisconnect(sock *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.sock != sock {
		// Already replaced or closed.
		c.mu.Unlock()
		return
	}
	c.sock = nil
	c.failPendingLocked()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	c.log.Warn("connection lost, reconnecting", slog.Any("error", cause))
	go c.reconnect()
}

// failPendingLocked aborts in-flight calls; a closed channel reads as a
// disconnect in Call.
func (c *Client) failPendingLocked() {
	for id, call := range c.pending {
		close(call.ch)
		delete(c.pending, id)
	}
}

// reconnect retries the connection with exponential backoff and jitter
// until it succeeds or the client is closed.
func (c *Client) reconnect() {
	backoff := c.opts.MinBackoff
	for {
		// Jitter spreads simultaneous reconnects from many clients.
		delay := backoff/2 + rand.N(backoff/2+1)
		time.Sleep(delay)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sock, err := c.dial(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				c.log.Error("reconnect rejected, giving up", slog.Any("error", err))
				return
			}
			c.log.Debug("reconnect attempt failed", slog.Any("error", err))
			backoff = min(backoff*2, c.opts.MaxBackoff)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			sock.Close(websocket.StatusNormalClosure, "")
			return
		}
		c.sock = sock
		c.mu.Unlock()

		go c.readLoop(sock)
		c.log.Info("reconnected")
		if c.onConnect != nil {
			c.onConnect(context.Background())
		}
		return
	}
}

// RewatchDelay exposes the configured post-reconnect delay so the session
// can wait before re-subscribing.
func (c *Client) RewatchDelay() time.Duration {
	return c.opts.RewatchDelay
}
