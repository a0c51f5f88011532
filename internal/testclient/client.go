// Package testclient drives a running viewer over its websocket the way a
// browser would. It is used by the integration scenarios in test/.
package testclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var ErrTimeout = errors.New("testclient: timed out waiting for message")

// Message is a decoded viewer message.
type Message struct {
	Type     string        `json:"type"`
	Snapshot *wfc.Snapshot `json:"snapshot,omitempty"`
	Outcome  string        `json:"outcome,omitempty"`
	Steps    int           `json:"steps,omitempty"`
	Seed     int64         `json:"seed,omitempty"`
	RunID    int64         `json:"run_id,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// TestClient is one viewer connection.
type TestClient struct {
	Name     string
	conn     *websocket.Conn
	incoming chan Message
	done     chan struct{}

	mu       sync.Mutex
	messages []Message
	last     *wfc.Snapshot
	readErr  error
}

// NewTestClient connects to a viewer. address is either host:port or a full
// ws:// URL.
func NewTestClient(name, address string) (*TestClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		Name:     name,
		conn:     conn,
		incoming: make(chan Message, 1024),
		done:     make(chan struct{}),
	}
	go client.readMessages()
	return client, nil
}

func wsURL(address string) string {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return address
	}
	u := url.URL{Scheme: "ws", Host: address, Path: "/ws"}
	return u.String()
}

// readMessages reads messages in the background until the connection closes.
func (c *TestClient) readMessages() {
	defer close(c.incoming)
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.messages = append(c.messages, msg)
		if msg.Snapshot != nil {
			c.last = msg.Snapshot
		}
		c.mu.Unlock()

		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

// SendCommand sends one command line.
func (c *TestClient) SendCommand(cmd string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(cmd))
}

// Next returns the next message in arrival order.
func (c *TestClient) Next(timeout time.Duration) (Message, error) {
	select {
	case msg, ok := <-c.incoming:
		if !ok {
			return Message{}, c.closedErr()
		}
		return msg, nil
	case <-time.After(timeout):
		return Message{}, ErrTimeout
	}
}

// WaitForType skips messages until one of type typ arrives.
func (c *TestClient) WaitForType(typ string, timeout time.Duration) (Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Message{}, ErrTimeout
		}
		msg, err := c.Next(remaining)
		if err != nil {
			return Message{}, err
		}
		if msg.Type == typ {
			return msg, nil
		}
	}
}

// LastSnapshot returns the most recent snapshot received, or nil.
func (c *TestClient) LastSnapshot() *wfc.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// GetMessages returns a copy of every message received so far.
func (c *TestClient) GetMessages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ClearMessages drops the received history and anything still queued.
func (c *TestClient) ClearMessages() {
drain:
	for {
		select {
		case _, ok := <-c.incoming:
			if !ok {
				break drain
			}
		default:
			break drain
		}
	}
	c.mu.Lock()
	c.messages = c.messages[:0]
	c.mu.Unlock()
}

// Close closes the connection.
func (c *TestClient) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *TestClient) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return fmt.Errorf("connection closed: %w", c.readErr)
	}
	return errors.New("testclient: connection closed")
}
