package block

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
)

type ethereumFetcher struct {
	client adapter.EthClient
}

// NewEthereumFetcher creates a Fetcher backed by an Ethereum RPC client
func NewEthereumFetcher(client adapter.EthClient) Fetcher {
	return &ethereumFetcher{client: client}
}

// FetchHead fetches the latest block number
func (f *ethereumFetcher) FetchHead(ctx context.Context) (uint64, error) {
	header, err := f.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest header: %w", err)
	}

	return header.Number.Uint64(), nil
}

// FetchTimestamp fetches the timestamp of a given block number
func (f *ethereumFetcher) FetchTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := f.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch header for block %d: %w", blockNumber, err)
	}

	return time.Unix(int64(header.Time), 0).UTC(), nil
}
