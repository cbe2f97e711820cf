package adapter

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsConn defines an interface for NATS connection operations to enable mocking
//
//go:generate mockgen -source=nats.go -destination=../mocks/nats.go -package=mocks -mock_names=NatsConn=MockNatsConn
type NatsConn interface {
	Close()
	Drain() error
	LastError() error
	ConnectedUrl() string
}

// JetStream defines an interface for JetStream publish operations to enable mocking
//
//go:generate mockgen -source=nats.go -destination=../mocks/nats.go -package=mocks -mock_names=JetStream=MockJetStream
type JetStream interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NatsJetStream defines an interface for creating NATS connections and JetStream contexts
//
//go:generate mockgen -source=nats.go -destination=../mocks/nats.go -package=mocks -mock_names=NatsJetStream=MockNatsJetStream
type NatsJetStream interface {
	Connect(url string, options ...nats.Option) (NatsConn, JetStream, error)
}

// RealNatsJetStream implements NatsJetStream using the standard nats package
type RealNatsJetStream struct{}

// NewNatsJetStream creates a new real NATS JetStream
func NewNatsJetStream() NatsJetStream {
	return &RealNatsJetStream{}
}

func (n *RealNatsJetStream) Connect(url string, options ...nats.Option) (NatsConn, JetStream, error) {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return &natsConnAdapter{nc: nc}, js, nil
}

// natsConnAdapter adapts *nats.Conn to the NatsConn interface and gives Drain a
// bounded flush before handing off to the client library
type natsConnAdapter struct {
	nc *nats.Conn
}

func (a *natsConnAdapter) Close() {
	a.nc.Close()
}

func (a *natsConnAdapter) Drain() error {
	// Flush first so in-flight publishes reach the server before drain begins
	if err := a.nc.FlushTimeout(5 * time.Second); err != nil {
		return err
	}
	return a.nc.Drain()
}

func (a *natsConnAdapter) LastError() error {
	return a.nc.LastError()
}

func (a *natsConnAdapter) ConnectedUrl() string {
	return a.nc.ConnectedUrl()
}
