package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/grailsmarket/backend-sub000/internal/mocks"
	"github.com/grailsmarket/backend-sub000/internal/resolver"
)

// testResolverMocks contains all the mocks needed for testing the resolver
type testResolverMocks struct {
	ctrl     *gomock.Controller
	client   *mocks.MockGraphClient
	clock    *mocks.MockClock
	resolver resolver.Resolver
}

func setupResolverTest(t *testing.T) *testResolverMocks {
	ctrl := gomock.NewController(t)

	mockClient := mocks.NewMockGraphClient(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	r := resolver.New(mockClient, resolver.Config{CacheTTL: 10 * time.Minute}, mockClock)

	return &testResolverMocks{
		ctrl:     ctrl,
		client:   mockClient,
		clock:    mockClock,
		resolver: r,
	}
}

func resolved(tokenID, label, name string) *resolver.ResolvedName {
	return &resolver.ResolvedName{TokenID: tokenID, Label: label, Name: name}
}

func TestResolver_Resolve_Hit(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"42"}).Return(map[string]*resolver.ResolvedName{
		"42": resolved("42", "alice", "alice.eth"),
	}, nil)

	name, err := tm.resolver.Resolve(ctx, "42")

	assert.NoError(t, err)
	assert.Equal(t, "alice.eth", name.Name)
}

func TestResolver_Resolve_UnknownToken_ReturnsNil(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"42"}).Return(map[string]*resolver.ResolvedName{}, nil)

	name, err := tm.resolver.Resolve(ctx, "42")

	assert.NoError(t, err)
	assert.Nil(t, name)
}

func TestResolver_ResolveBatch_DeduplicatesInput(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	// Duplicated input ids collapse into a single subgraph call
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1", "2"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
		"2": resolved("2", "bob", "bob.eth"),
	}, nil)

	result, err := tm.resolver.ResolveBatch(ctx, []string{"1", "2", "1", "2", "1"})

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "alice.eth", result["1"].Name)
	assert.Equal(t, "bob.eth", result["2"].Name)
}

func TestResolver_ResolveBatch_ServesCachedEntries(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
	}, nil)

	_, err := tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)

	// Second batch within the TTL only fetches the miss
	tm.clock.EXPECT().Now().Return(now.Add(time.Minute))
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"2"}).Return(map[string]*resolver.ResolvedName{
		"2": resolved("2", "bob", "bob.eth"),
	}, nil)

	result, err := tm.resolver.ResolveBatch(ctx, []string{"1", "2"})

	assert.NoError(t, err)
	assert.Equal(t, "alice.eth", result["1"].Name)
	assert.Equal(t, "bob.eth", result["2"].Name)
}

func TestResolver_ResolveBatch_RefetchesAfterTTL(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
	}, nil)

	_, err := tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)

	tm.clock.EXPECT().Now().Return(now.Add(11 * time.Minute))
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
	}, nil)

	_, err = tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)
}

func TestResolver_ResolveBatch_DoesNotCacheNegativeResults(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{}, nil)

	result, err := tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)
	assert.Nil(t, result["1"])

	// The unknown token is queried again on the next call
	tm.clock.EXPECT().Now().Return(now.Add(time.Second))
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
	}, nil)

	result, err = tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)
	assert.Equal(t, "alice.eth", result["1"].Name)
}

func TestResolver_ResolveBatch_PropagatesClientError(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(nil, errors.New("subgraph down"))

	_, err := tm.resolver.ResolveBatch(ctx, []string{"1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve names")
}

func TestResolver_Clear(t *testing.T) {
	tm := setupResolverTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now).Times(2)
	tm.client.EXPECT().NamesByTokenIDs(ctx, []string{"1"}).Return(map[string]*resolver.ResolvedName{
		"1": resolved("1", "alice", "alice.eth"),
	}, nil).Times(2)

	_, err := tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)

	tm.resolver.Clear()

	// Cache dropped, the client is called again
	_, err = tm.resolver.ResolveBatch(ctx, []string{"1"})
	assert.NoError(t, err)
}

func TestCanonicalTokenID_WrappedUnexpired_UsesNamehash(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)

	name := &resolver.ResolvedName{
		Label:     "vitalik",
		Name:      "vitalik.eth",
		Wrapped:   true,
		ExpiresAt: &expiry,
	}

	assert.Equal(t,
		resolver.HashToTokenID(resolver.Namehash("vitalik.eth")),
		resolver.CanonicalTokenID(name, now))
}

func TestCanonicalTokenID_WrappedNoExpiry_UsesNamehash(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	name := &resolver.ResolvedName{
		Label:   "vitalik",
		Name:    "vitalik.eth",
		Wrapped: true,
	}

	assert.Equal(t,
		resolver.HashToTokenID(resolver.Namehash("vitalik.eth")),
		resolver.CanonicalTokenID(name, now))
}

func TestCanonicalTokenID_WrappedExpired_UsesLabelHash(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.Add(-time.Hour)

	name := &resolver.ResolvedName{
		Label:     "vitalik",
		Name:      "vitalik.eth",
		Wrapped:   true,
		ExpiresAt: &expiry,
	}

	assert.Equal(t,
		resolver.HashToTokenID(resolver.LabelHash("vitalik")),
		resolver.CanonicalTokenID(name, now))
}

func TestCanonicalTokenID_Unwrapped_UsesLabelHash(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	name := &resolver.ResolvedName{
		Label: "vitalik",
		Name:  "vitalik.eth",
	}

	assert.Equal(t,
		resolver.HashToTokenID(resolver.LabelHash("vitalik")),
		resolver.CanonicalTokenID(name, now))
}
