package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// conn wraps a websocket with the JSON-RPC write operations. The underlying
// socket serializes concurrent writes, so replies from the read loop and
// pushes from the fanout goroutine can interleave safely.
type conn struct {
	sock         *websocket.Conn
	writeTimeout time.Duration
}

func (c *conn) write(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.sock, v)
}

func (c *conn) reply(ctx context.Context, id json.RawMessage, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.write(ctx, Response{Jsonrpc: Version, Result: raw, ID: id})
}

func (c *conn) replyError(ctx context.Context, id json.RawMessage, rpcErr *Error) error {
	if id == nil {
		id = json.RawMessage("null")
	}
	return c.write(ctx, Response{Jsonrpc: Version, Error: rpcErr, ID: id})
}

// notify sends a server-initiated notification (no id, no response expected).
func (c *conn) notify(ctx context.Context, method string, params any) error {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		raw = b
	}
	return c.write(ctx, Notification{Jsonrpc: Version, Method: method, Params: raw})
}
