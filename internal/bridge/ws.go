package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"nhooyr.io/websocket"
)

// wsConn is a bridge reached over a websocket instead of a spawned
// sidecar, for bridges developed and run out-of-process. One text message
// carries one envelope.
type wsConn struct {
	ctx  context.Context
	conn *websocket.Conn
}

func dialWS(ctx context.Context, url string) (*wsConn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	// Chat snapshots can be large; match the stdio line cap.
	c.SetReadLimit(1 << 20)
	return &wsConn{ctx: ctx, conn: c}, nil
}

func (c *wsConn) send(env protocol.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return c.conn.Write(c.ctx, websocket.MessageText, b)
}

func (c *wsConn) read() (protocol.Envelope, error) {
	_, b, err := c.conn.Read(c.ctx)
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("read: %w", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return protocol.Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

func (c *wsConn) close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
