package scanner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/block"
	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/logger"
	"github.com/grailsmarket/backend-sub000/internal/store"
	"github.com/grailsmarket/backend-sub000/internal/store/schema"
)

const (
	DEFAULT_BATCH_SIZE       = 2000
	DEFAULT_POLL_INTERVAL    = 12 * time.Second
	DEFAULT_WORKER_POOL_SIZE = 5
)

// Decoder turns raw chain logs into normalized events. Decoding is total:
// logs the decoder does not recognize come back with ChainEventUnknown.
//
//go:generate mockgen -source=scanner.go -destination=../mocks/scanner.go -package=mocks -mock_names=Decoder=MockDecoder,Reconciler=MockReconciler
type Decoder interface {
	// Topics returns the event signatures the decoder handles, used to
	// filter the log query
	Topics() []common.Hash
	// Decode parses a raw log into a normalized event
	Decode(log types.Log) (*domain.ChainEvent, error)
}

// Reconciler applies decoded events to stored state. Implementations must be
// idempotent: replayed block ranges feed them the same events again.
type Reconciler interface {
	Reconcile(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error
}

// Config holds the configuration for a contract scanner
type Config struct {
	// ContractAddress is the contract whose logs are scanned
	ContractAddress string
	// DeployBlock is where a fresh cursor starts
	DeployBlock uint64
	// Confirmations is how far the scanner trails the chain head
	Confirmations uint64
	// BatchSize caps the width of a single log query
	BatchSize uint64
	// PollInterval is how long to wait when the scanner is caught up
	PollInterval time.Duration
	// WorkerPoolSize bounds concurrent block timestamp prefetches
	WorkerPoolSize int
}

// Scanner polls a contract's logs behind a confirmation lag and feeds
// decoded events to a reconciler, advancing a persistent cursor only after
// a whole range has been applied.
type Scanner struct {
	client     adapter.EthClient
	blocks     block.Provider
	store      store.Store
	decoder    Decoder
	reconciler Reconciler
	config     Config
	clock      adapter.Clock
	json       adapter.JSON
}

// New creates a contract scanner
func New(
	client adapter.EthClient,
	blocks block.Provider,
	st store.Store,
	decoder Decoder,
	reconciler Reconciler,
	config Config,
	clock adapter.Clock,
	json adapter.JSON,
) *Scanner {
	if config.BatchSize == 0 {
		config.BatchSize = DEFAULT_BATCH_SIZE
	}
	if config.PollInterval == 0 {
		config.PollInterval = DEFAULT_POLL_INTERVAL
	}
	if config.WorkerPoolSize == 0 {
		config.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}

	return &Scanner{
		client:     client,
		blocks:     blocks,
		store:      st,
		decoder:    decoder,
		reconciler: reconciler,
		config:     config,
		clock:      clock,
		json:       json,
	}
}

// Run polls for new confirmed blocks until the context is cancelled.
// Transient RPC failures back off exponentially and never stop the loop.
func (s *Scanner) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting contract scanner",
		zap.String("contract", s.config.ContractAddress),
		zap.Uint64("confirmations", s.config.Confirmations))

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0 // retry forever, the cursor guarantees no gaps

	for {
		progressed, err := s.ProcessNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := retry.NextBackOff()
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Failed to process block range"),
				zap.String("contract", s.config.ContractAddress),
				zap.Duration("retry_in", wait))
			if !s.sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}
		retry.Reset()

		if progressed {
			// More confirmed blocks may be waiting, keep going
			continue
		}
		if !s.sleep(ctx, s.config.PollInterval) {
			return ctx.Err()
		}
	}
}

// ProcessNext processes the next pending block range. It reports false when
// the cursor has caught up with the confirmed head.
func (s *Scanner) ProcessNext(ctx context.Context) (bool, error) {
	head, err := s.blocks.Head(ctx)
	if err != nil {
		return false, err
	}
	if head < s.config.Confirmations {
		return false, nil
	}
	target := head - s.config.Confirmations

	cursor, err := s.store.GetBlockCursor(ctx, s.config.ContractAddress)
	if err != nil {
		return false, err
	}
	if cursor == 0 {
		cursor = s.config.DeployBlock
	}
	if cursor >= target {
		return false, nil
	}

	from := cursor + 1
	to := min(cursor+s.config.BatchSize, target)

	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{common.HexToAddress(s.config.ContractAddress)},
		Topics:    [][]common.Hash{s.decoder.Topics()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to filter logs [%d, %d]: %w", from, to, err)
	}

	if len(logs) > 0 {
		if err := s.prefetchTimestamps(ctx, logs); err != nil {
			return false, err
		}
		if err := s.processLogs(ctx, logs); err != nil {
			return false, err
		}
	}

	if err := s.store.SetBlockCursor(ctx, s.config.ContractAddress, to); err != nil {
		return false, fmt.Errorf("failed to advance cursor to %d: %w", to, err)
	}

	logger.DebugCtx(ctx, "Processed block range",
		zap.String("contract", s.config.ContractAddress),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("logs", len(logs)))

	return true, nil
}

// prefetchTimestamps warms the block timestamp cache concurrently so the
// sequential reconcile pass below never waits on the RPC endpoint
func (s *Scanner) prefetchTimestamps(ctx context.Context, logs []types.Log) error {
	blockNumbers := make(map[uint64]bool)
	for _, l := range logs {
		blockNumbers[l.BlockNumber] = true
	}

	pool := pond.NewPool(s.config.WorkerPoolSize, pond.WithContext(ctx))
	group := pool.NewGroup()
	for number := range blockNumbers {
		group.SubmitErr(func() error {
			_, err := s.blocks.Timestamp(ctx, number)
			return err
		})
	}
	err := group.Wait()
	pool.StopAndWait()
	if err != nil {
		return fmt.Errorf("failed to prefetch block timestamps: %w", err)
	}

	return nil
}

// processLogs decodes and reconciles a range's logs in log order. A log that
// fails to decode or reconcile is logged and skipped; it must not wedge the
// cursor. Timestamp and raw-log failures abort so the range is retried.
func (s *Scanner) processLogs(ctx context.Context, logs []types.Log) error {
	for _, l := range logs {
		event, err := s.decoder.Decode(l)
		if err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Failed to decode log"),
				zap.String("contract", s.config.ContractAddress),
				zap.String("tx_hash", l.TxHash.Hex()),
				zap.Uint("log_index", l.Index))
			continue
		}

		timestamp, err := s.blocks.Timestamp(ctx, l.BlockNumber)
		if err != nil {
			return err
		}

		if err := s.recordRawLog(ctx, l, event); err != nil {
			return err
		}

		if event.Kind == domain.ChainEventUnknown {
			continue
		}
		if err := s.reconciler.Reconcile(ctx, event, timestamp); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Failed to reconcile event"),
				zap.String("contract", s.config.ContractAddress),
				zap.String("kind", string(event.Kind)),
				zap.String("tx_hash", event.TxHash),
				zap.Uint64("block_number", event.BlockNumber),
				zap.Uint("log_index", event.LogIndex))
		}
	}

	return nil
}

func (s *Scanner) recordRawLog(ctx context.Context, l types.Log, event *domain.ChainEvent) error {
	payload, err := s.json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal raw log: %w", err)
	}

	_, err = s.store.RecordRawEventLog(ctx, schema.RawEventLog{
		ContractAddress: s.config.ContractAddress,
		TxHash:          l.TxHash.Hex(),
		LogIndex:        l.Index,
		BlockNumber:     l.BlockNumber,
		EventKind:       string(event.Kind),
		Payload:         payload,
	})
	if err != nil {
		return fmt.Errorf("failed to record raw log: %w", err)
	}

	return nil
}

// sleep waits for the given duration, returning false on context cancellation
func (s *Scanner) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
