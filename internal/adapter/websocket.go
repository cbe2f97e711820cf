package adapter

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn defines an interface for a single WebSocket connection to enable mocking
//
//go:generate mockgen -source=websocket.go -destination=../mocks/websocket.go -package=mocks -mock_names=WSConn=MockWSConn
type WSConn interface {
	// ReadMessage reads the next message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	// WriteMessage writes a message to the connection
	WriteMessage(messageType int, data []byte) error

	// WriteControl writes a control frame with the given deadline
	WriteControl(messageType int, data []byte, deadline time.Time) error

	// SetPingHandler sets the handler for inbound ping frames
	SetPingHandler(h func(appData string) error)

	// Close closes the underlying network connection
	Close() error
}

// WSDialer defines an interface for dialing WebSocket connections
//
//go:generate mockgen -source=websocket.go -destination=../mocks/websocket.go -package=mocks -mock_names=WSDialer=MockWSDialer
type WSDialer interface {
	Dial(ctx context.Context, url string, headers map[string]string) (WSConn, error)
}

// RealWSDialer implements WSDialer using gorilla/websocket
type RealWSDialer struct {
	dialer *websocket.Dialer
}

// NewWSDialer creates a new real WebSocket dialer
func NewWSDialer(handshakeTimeout time.Duration) WSDialer {
	return &RealWSDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *RealWSDialer) Dial(ctx context.Context, url string, headers map[string]string) (WSConn, error) {
	h := make(map[string][]string, len(headers))
	for k, v := range headers {
		h[k] = []string{v}
	}

	conn, resp, err := d.dialer.DialContext(ctx, url, h)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	return conn, nil
}
