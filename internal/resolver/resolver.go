package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
)

// Resolver maps token identifiers to registered names, caching subgraph
// results. Lookups for tokens the subgraph does not know return nil without
// error; callers keep the placeholder and retry later.
//
//go:generate mockgen -source=resolver.go -destination=../mocks/resolver.go -package=mocks -mock_names=Resolver=MockResolver
type Resolver interface {
	// Resolve resolves a single token identifier
	Resolve(ctx context.Context, tokenID string) (*ResolvedName, error)

	// ResolveBatch resolves a set of token identifiers, deduplicating input
	// and serving cached entries without a subgraph round trip
	ResolveBatch(ctx context.Context, tokenIDs []string) (map[string]*ResolvedName, error)

	// Clear drops all cached entries
	Clear()
}

// Config holds configuration for the Resolver
type Config struct {
	// CacheTTL is how long a resolved name stays cached
	CacheTTL time.Duration
}

type cacheEntry struct {
	resolved *ResolvedName
	cachedAt time.Time
}

type resolver struct {
	client GraphClient
	config Config
	clock  adapter.Clock

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New creates a caching Resolver over a subgraph client
func New(client GraphClient, config Config, clock adapter.Clock) Resolver {
	return &resolver{
		client: client,
		config: config,
		clock:  clock,
		cache:  make(map[string]cacheEntry),
	}
}

// Resolve resolves a single token identifier
func (r *resolver) Resolve(ctx context.Context, tokenID string) (*ResolvedName, error) {
	resolved, err := r.ResolveBatch(ctx, []string{tokenID})
	if err != nil {
		return nil, err
	}

	return resolved[tokenID], nil
}

// ResolveBatch resolves a set of token identifiers
func (r *resolver) ResolveBatch(ctx context.Context, tokenIDs []string) (map[string]*ResolvedName, error) {
	now := r.clock.Now()
	result := make(map[string]*ResolvedName, len(tokenIDs))

	r.mu.Lock()
	var misses []string
	seen := make(map[string]bool, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if seen[tokenID] {
			continue
		}
		seen[tokenID] = true

		if entry, ok := r.cache[tokenID]; ok && now.Sub(entry.cachedAt) < r.config.CacheTTL {
			result[tokenID] = entry.resolved
			continue
		}
		misses = append(misses, tokenID)
	}
	r.mu.Unlock()

	if len(misses) == 0 {
		return result, nil
	}

	resolved, err := r.client.NamesByTokenIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve names: %w", err)
	}

	r.mu.Lock()
	for _, tokenID := range misses {
		name := resolved[tokenID]
		if name != nil {
			// Negative results are not cached so new registrations show up
			// as soon as the subgraph indexes them
			r.cache[tokenID] = cacheEntry{resolved: name, cachedAt: now}
		}
		result[tokenID] = name
	}
	r.mu.Unlock()

	return result, nil
}

// Clear drops all cached entries
func (r *resolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]cacheEntry)
	r.mu.Unlock()
}

// CanonicalTokenID derives the token identifier records should be stored
// under. Wrapped names trade under the full-name node hash; everything else,
// including wrapped names past expiry, trades under the label hash.
func CanonicalTokenID(name *ResolvedName, now time.Time) string {
	if name.Wrapped && (name.ExpiresAt == nil || name.ExpiresAt.After(now)) {
		return HashToTokenID(Namehash(name.Name))
	}

	return HashToTokenID(LabelHash(name.Label))
}
