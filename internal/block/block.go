package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/logger"
)

// headCache holds the most recently observed chain head
type headCache struct {
	Number   uint64
	CachedAt time.Time
}

// Provider gives the scanners cached access to the chain head and to block
// timestamps. Both scanners poll the head every few seconds, so caching keeps
// the RPC call volume independent of the number of monitored contracts.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=Provider=MockBlockProvider
type Provider interface {
	// Head returns the latest block number, potentially from cache
	Head(ctx context.Context) (uint64, error)

	// Timestamp returns the timestamp of a given block number. Timestamps of
	// confirmed blocks are immutable and cached forever.
	Timestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Fetcher is the interface for fetching block information from the chain
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=Fetcher=MockBlockFetcher
type Fetcher interface {
	// FetchHead fetches the latest block number
	FetchHead(ctx context.Context) (uint64, error)

	// FetchTimestamp fetches the timestamp of a given block number
	FetchTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the Provider
type Config struct {
	// HeadTTL is how long a fetched head stays fresh
	HeadTTL time.Duration

	// StaleWindow is how long a stale head may still be served when a fresh
	// fetch fails. Past the window the fetch error propagates.
	StaleWindow time.Duration
}

type provider struct {
	fetcher Fetcher
	config  Config
	clock   adapter.Clock

	mu         sync.RWMutex
	head       *headCache
	timestamps map[uint64]time.Time
}

// NewProvider creates a caching block Provider
func NewProvider(fetcher Fetcher, config Config, clock adapter.Clock) Provider {
	return &provider{
		fetcher:    fetcher,
		config:     config,
		clock:      clock,
		timestamps: make(map[uint64]time.Time),
	}
}

// Head returns the latest block number, using cache if fresh
func (p *provider) Head(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.CachedAt) < p.config.HeadTTL {
		return cached.Number, nil
	}

	number, err := p.fetcher.FetchHead(ctx)
	if err != nil {
		// Serve a stale head while the RPC endpoint is flapping
		if cached != nil && now.Sub(cached.CachedAt) < p.config.StaleWindow {
			logger.DebugCtx(ctx, "Using stale chain head", zap.Uint64("block_number", cached.Number))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch chain head and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.head = &headCache{Number: number, CachedAt: now}
	p.mu.Unlock()

	return number, nil
}

// Timestamp returns the timestamp of a given block number, using cache if present
func (p *provider) Timestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	cached, ok := p.timestamps[blockNumber]
	p.mu.RUnlock()

	if ok {
		return cached, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp", zap.Uint64("block_number", blockNumber))
	timestamp, err := p.fetcher.FetchTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch timestamp for block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.timestamps[blockNumber] = timestamp
	p.mu.Unlock()

	return timestamp, nil
}
