package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/logger"
)

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

// Envelope wraps a job payload with routing and tracing metadata. ID lets
// consumers deduplicate redeliveries.
type Envelope struct {
	ID        string          `json:"id"`
	Queue     domain.JobQueue `json:"queue"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   interface{}     `json:"payload"`
}

// Publisher defines the interface for publishing jobs to the message broker.
// Publishing is best effort: producers log failures and keep going, they
// never roll back database state over a lost job.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish sends a job to the given queue
	Publish(ctx context.Context, queue domain.JobQueue, payload interface{}) error
	// Close drains and closes the connection
	Close()
}

type publisher struct {
	cfg           Config
	natsJS        adapter.NatsJetStream
	subjectPrefix string
	clock         adapter.Clock
	json          adapter.JSON

	mu sync.Mutex
	nc adapter.NatsConn
	js adapter.JetStream
}

// NewPublisher creates a NATS JetStream job publisher. The connection is
// established lazily on the first Publish, so the broker being down never
// blocks startup.
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, clock adapter.Clock, jsonAdapter adapter.JSON) Publisher {
	return &publisher{
		cfg:           cfg,
		natsJS:        natsJS,
		subjectPrefix: cfg.SubjectPrefix,
		clock:         clock,
		json:          jsonAdapter,
	}
}

// connect dials the broker on first use. A failed dial is not cached, so the
// next Publish retries it.
func (p *publisher) connect() (adapter.JetStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.js != nil {
		return p.js, nil
	}

	opts := []nats.Option{
		nats.Name(p.cfg.ConnectionName),
		nats.MaxReconnects(p.cfg.MaxReconnects),
		nats.ReconnectWait(p.cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := p.natsJS.Connect(p.cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	p.nc = nc
	p.js = js

	return js, nil
}

// Publish sends a job to the given queue
func (p *publisher) Publish(ctx context.Context, queue domain.JobQueue, payload interface{}) error {
	js, err := p.connect()
	if err != nil {
		return err
	}

	envelope := Envelope{
		ID:        ulid.Make().String(),
		Queue:     queue,
		CreatedAt: p.clock.Now().UTC(),
		Payload:   payload,
	}

	data, err := p.json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal job envelope: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, queue)
	if _, err := js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	logger.DebugCtx(ctx, "Published job",
		zap.String("job_id", envelope.ID),
		zap.String("subject", subject))

	return nil
}

// Close drains and closes the connection. A publisher that never connected
// has nothing to close.
func (p *publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nc == nil {
		return
	}

	if err := p.nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", zap.Error(err))
	}
	p.nc.Close()
}
