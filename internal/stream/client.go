package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/logger"
)

// Phoenix channel protocol events
const (
	PHX_JOIN  = "phx_join"
	PHX_REPLY = "phx_reply"
	PHX_ERROR = "phx_error"
	PHX_CLOSE = "phx_close"

	HEARTBEAT_TOPIC = "phoenix"
	HEARTBEAT_EVENT = "heartbeat"
)

const (
	DEFAULT_HEARTBEAT_INTERVAL = 30 * time.Second
	DEFAULT_RECONNECT_DELAY    = 5 * time.Second
	DEFAULT_MAX_RECONNECTS     = 10

	writeWait = 10 * time.Second
)

// Message is a Phoenix channel protocol frame
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// Handler consumes decoded stream events. The client dispatches events in
// arrival order from a single goroutine.
//
//go:generate mockgen -source=client.go -destination=../mocks/stream_handler.go -package=mocks -mock_names=Handler=MockStreamHandler
type Handler interface {
	Handle(ctx context.Context, event *domain.StreamEvent) error
}

// Config holds the configuration for the stream client
type Config struct {
	// URL is the websocket endpoint, including any auth token parameter
	URL string
	// Topic is the Phoenix channel to join, e.g. "collection:slug"
	Topic string
	// HeartbeatInterval is how often to send protocol heartbeats
	HeartbeatInterval time.Duration
	// ReconnectDelay is how long to wait between reconnect attempts
	ReconnectDelay time.Duration
	// MaxReconnects bounds consecutive failed sessions before giving up
	MaxReconnects int
}

// Client maintains a Phoenix channel subscription to the marketplace event
// stream, reconnecting on failure up to a bounded number of attempts.
type Client struct {
	dialer  adapter.WSDialer
	handler Handler
	config  Config
	clock   adapter.Clock
	json    adapter.JSON

	writeMu sync.Mutex
}

// NewClient creates a stream client
func NewClient(dialer adapter.WSDialer, handler Handler, config Config, clock adapter.Clock, json adapter.JSON) *Client {
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = DEFAULT_HEARTBEAT_INTERVAL
	}
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = DEFAULT_RECONNECT_DELAY
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = DEFAULT_MAX_RECONNECTS
	}

	return &Client{
		dialer:  dialer,
		handler: handler,
		config:  config,
		clock:   clock,
		json:    json,
	}
}

// Run maintains the stream subscription until the context is cancelled or
// too many sessions fail in a row. A session that manages to join the topic
// resets the failure counter.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		joined, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if joined {
			attempts = 0
		}

		attempts++
		if attempts >= c.config.MaxReconnects {
			return fmt.Errorf("%w after %d attempts: %v", domain.ErrStreamTerminated, attempts, err)
		}

		logger.WarnCtx(ctx, "Stream session ended, reconnecting",
			zap.Int("attempt", attempts),
			zap.Duration("delay", c.config.ReconnectDelay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.config.ReconnectDelay):
		}
	}
}

// session runs a single connect-join-read cycle. It reports whether the
// topic join was acknowledged before the session ended.
func (c *Client) session(ctx context.Context) (bool, error) {
	conn, err := c.dialer.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial stream: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessionCtx.Done()
		_ = conn.Close()
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), c.clock.Now().Add(writeWait))
	})

	joinRef := uuid.NewString()
	join := Message{
		Topic:   c.config.Topic,
		Event:   PHX_JOIN,
		Payload: json.RawMessage(`{}`),
		Ref:     joinRef,
	}
	if err := c.write(conn, join); err != nil {
		return false, fmt.Errorf("failed to join topic: %w", err)
	}

	go c.heartbeatLoop(sessionCtx, cancel, conn)

	joined := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return joined, fmt.Errorf("failed to read stream message: %w", err)
		}

		var msg Message
		if err := c.json.Unmarshal(data, &msg); err != nil {
			logger.WarnCtx(ctx, "Dropping malformed stream frame", zap.Error(err))
			continue
		}

		switch msg.Event {
		case PHX_REPLY:
			if msg.Ref == joinRef {
				joined = true
				logger.InfoCtx(ctx, "Joined stream topic", zap.String("topic", c.config.Topic))
			}
		case PHX_ERROR, PHX_CLOSE:
			return joined, fmt.Errorf("channel %s closed by server", msg.Topic)
		default:
			event := DecodeEvent(msg.Event, msg.Payload, c.json)
			if err := c.handler.Handle(ctx, event); err != nil {
				logger.ErrorCtx(ctx, err,
					zap.String("message", "Failed to handle stream event"),
					zap.String("event", msg.Event))
			}
		}
	}
}

// heartbeatLoop keeps the Phoenix connection alive. A failed heartbeat write
// cancels the session so the read loop unblocks and reconnects.
func (c *Client) heartbeatLoop(ctx context.Context, cancel context.CancelFunc, conn adapter.WSConn) {
	var ref uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.config.HeartbeatInterval):
			ref++
			heartbeat := Message{
				Topic:   HEARTBEAT_TOPIC,
				Event:   HEARTBEAT_EVENT,
				Payload: json.RawMessage(`{}`),
				Ref:     strconv.FormatUint(ref, 10),
			}
			if err := c.write(conn, heartbeat); err != nil {
				logger.Warn("Failed to send stream heartbeat", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func (c *Client) write(conn adapter.WSConn, msg Message) error {
	data, err := c.json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal stream frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteMessage(websocket.TextMessage, data)
}
