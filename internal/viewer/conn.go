package viewer

import (
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// conn wraps a websocket connection. ReadCommand is called only by the
// session's reader goroutine and WriteJSON only by its owner goroutine.
type conn struct {
	ws      *websocket.Conn
	pending []string
}

func newConn(ws *websocket.Conn, maxMessageSize int64) *conn {
	if maxMessageSize > 0 {
		ws.SetReadLimit(maxMessageSize)
	}
	return &conn{ws: ws}
}

// ReadCommand returns the next non-blank command line. A message holding
// several lines yields them one at a time.
func (c *conn) ReadCommand() (string, error) {
	for len(c.pending) == 0 {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(message), "\n") {
			if cmd := strings.ToLower(strings.TrimSpace(line)); cmd != "" {
				c.pending = append(c.pending, cmd)
			}
		}
	}

	cmd := c.pending[0]
	c.pending = c.pending[1:]
	return cmd, nil
}

// WriteJSON sends v as one text message.
func (c *conn) WriteJSON(v any) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Close sends a close frame and closes the connection.
func (c *conn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.ws.Close()
}
