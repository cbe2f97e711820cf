package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/store/schema"
)

const (
	testOwnerAddress  = "0x1111111111111111111111111111111111111111"
	testBuyerAddress  = "0x2222222222222222222222222222222222222222"
	testSellerAddress = "0x3333333333333333333333333333333333333333"
)

var testEventTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testDBOf exposes the underlying gorm handle for row-level assertions
func testDBOf(t *testing.T, s Store) *gorm.DB {
	ps, ok := s.(*pgStore)
	require.True(t, ok)
	return ps.db
}

func countRows(t *testing.T, s Store, model interface{}, query string, args ...interface{}) int64 {
	var count int64
	err := testDBOf(t, s).Model(model).Where(query, args...).Count(&count).Error
	require.NoError(t, err)
	return count
}

// =============================================================================
// Test Data Builders
// =============================================================================

func buildRegistration(tokenID, txHash string) RegistrationInput {
	return RegistrationInput{
		TokenID:     tokenID,
		Owner:       testOwnerAddress,
		Expires:     testEventTime.AddDate(1, 0, 0),
		TxHash:      txHash,
		BlockNumber: 9000100,
		Timestamp:   testEventTime,
	}
}

func buildListing(nameID uint64, orderHash string, source domain.Source) ListingInput {
	return ListingInput{
		NameID:        nameID,
		OrderHash:     orderHash,
		Source:        source,
		SellerAddress: testSellerAddress,
		Price:         decimal.RequireFromString("1000000000000000000"),
		Currency:      "ETH",
		ListedAt:      testEventTime,
	}
}

func buildSale(nameID uint64, orderHash, txHash string, source domain.Source) SaleInput {
	return SaleInput{
		NameID:        nameID,
		OrderHash:     orderHash,
		Source:        source,
		SellerAddress: testSellerAddress,
		BuyerAddress:  testBuyerAddress,
		Price:         decimal.RequireFromString("1000000000000000000"),
		Currency:      "ETH",
		TxHash:        txHash,
		BlockNumber:   9001000,
		Timestamp:     testEventTime,
	}
}

// =============================================================================
// Test: Block cursors
// =============================================================================

func testBlockCursor(t *testing.T, store Store) {
	ctx := context.Background()
	contract := "0x57f1887a8bf19b14fc0df6fd9b2acc9af147ea85"

	t.Run("missing cursor reads as zero", func(t *testing.T) {
		cursor, err := store.GetBlockCursor(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("set and get round trip", func(t *testing.T) {
		require.NoError(t, store.SetBlockCursor(ctx, contract, 9000100))

		cursor, err := store.GetBlockCursor(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, uint64(9000100), cursor)
	})

	t.Run("set overwrites previous value", func(t *testing.T) {
		require.NoError(t, store.SetBlockCursor(ctx, contract, 9000200))

		cursor, err := store.GetBlockCursor(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, uint64(9000200), cursor)
	})

	t.Run("cursors are scoped per contract", func(t *testing.T) {
		other := "0x00000000000000adc04c56bf30ac9d3c0aaf14dc"
		require.NoError(t, store.SetBlockCursor(ctx, other, 100))

		cursor, err := store.GetBlockCursor(ctx, contract)
		require.NoError(t, err)
		assert.Equal(t, uint64(9000200), cursor)
	})
}

// =============================================================================
// Test: Raw event logs
// =============================================================================

func testRecordRawEventLog(t *testing.T, store Store) {
	ctx := context.Background()

	log := schema.RawEventLog{
		ContractAddress: "0x57f1887a8bf19b14fc0df6fd9b2acc9af147ea85",
		TxHash:          "0xaaa1",
		LogIndex:        3,
		BlockNumber:     9000100,
		EventKind:       string(domain.ChainEventTransfer),
		Payload:         datatypes.JSON(`{"token_id":"42"}`),
	}

	created, err := store.RecordRawEventLog(ctx, log)
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("replayed log is skipped", func(t *testing.T) {
		created, err := store.RecordRawEventLog(ctx, log)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(1), countRows(t, store, &schema.RawEventLog{}, "tx_hash = ?", "0xaaa1"))
	})

	t.Run("same transaction different log index is recorded", func(t *testing.T) {
		log.LogIndex = 4
		created, err := store.RecordRawEventLog(ctx, log)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

// =============================================================================
// Test: EnsureName
// =============================================================================

func testEnsureName(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.NotZero(t, name.ID)
	assert.Equal(t, "42", name.TokenID)
	assert.Equal(t, "token-42", name.Name)
	assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, name.OwnerAddress)

	t.Run("second call returns the existing row", func(t *testing.T) {
		again, err := store.EnsureName(ctx, "42")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, name.ID, again.ID)
	})

	t.Run("row is visible through lookups", func(t *testing.T) {
		byToken, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		require.NotNil(t, byToken)
		assert.Equal(t, name.ID, byToken.ID)

		byName, err := store.GetNameByName(ctx, "token-42")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, name.ID, byName.ID)
	})

	t.Run("lookups return nil for unknown rows", func(t *testing.T) {
		missing, err := store.GetNameByTokenID(ctx, "999")
		require.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = store.GetNameByName(ctx, "nobody.eth")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

// =============================================================================
// Test: RecordRegistration
// =============================================================================

func testRecordRegistration(t *testing.T, store Store) {
	ctx := context.Background()
	input := buildRegistration("42", "0xreg1")

	require.NoError(t, store.RecordRegistration(ctx, input))

	name, err := store.GetNameByTokenID(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, testOwnerAddress, name.OwnerAddress)
	require.NotNil(t, name.RegistrantAddress)
	assert.Equal(t, testOwnerAddress, *name.RegistrantAddress)
	require.NotNil(t, name.ExpiryDate)
	assert.WithinDuration(t, input.Expires, *name.ExpiryDate, time.Second)
	require.NotNil(t, name.RegistrationDate)
	assert.WithinDuration(t, input.Timestamp, *name.RegistrationDate, time.Second)

	assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ? AND event_type = ?", "0xreg1", schema.TransactionTypeRegistration))
	assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xreg1", schema.ActivityKindMint))

	t.Run("replay does not duplicate child rows", func(t *testing.T) {
		require.NoError(t, store.RecordRegistration(ctx, input))

		assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ?", "0xreg1"))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ?", "0xreg1"))
	})
}

// =============================================================================
// Test: RecordRenewal
// =============================================================================

func testRecordRenewal(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.RecordRegistration(ctx, buildRegistration("42", "0xreg1")))

	newExpiry := testEventTime.AddDate(2, 0, 0)
	input := RenewalInput{
		TokenID:     "42",
		Expires:     newExpiry,
		TxHash:      "0xrenew1",
		BlockNumber: 9000200,
		Timestamp:   testEventTime.Add(time.Hour),
	}

	require.NoError(t, store.RecordRenewal(ctx, input))

	name, err := store.GetNameByTokenID(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, name)
	require.NotNil(t, name.ExpiryDate)
	assert.WithinDuration(t, newExpiry, *name.ExpiryDate, time.Second)

	assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ? AND event_type = ?", "0xrenew1", schema.TransactionTypeRenewal))

	t.Run("renewal of an unseen token creates a placeholder row", func(t *testing.T) {
		input.TokenID = "77"
		input.TxHash = "0xrenew2"
		require.NoError(t, store.RecordRenewal(ctx, input))

		name, err := store.GetNameByTokenID(ctx, "77")
		require.NoError(t, err)
		require.NotNil(t, name)
		assert.Equal(t, "token-77", name.Name)
	})
}

// =============================================================================
// Test: RecordTransfer
// =============================================================================

func testRecordTransfer(t *testing.T, store Store) {
	ctx := context.Background()

	mint := TransferInput{
		TokenID:     "42",
		FromAddress: domain.ETHEREUM_ZERO_ADDRESS,
		ToAddress:   testOwnerAddress,
		TxHash:      "0xmint1",
		BlockNumber: 9000100,
		Timestamp:   testEventTime,
	}

	result, err := store.RecordTransfer(ctx, mint)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, result.PreviousOwner)
	require.NotNil(t, result.Name)
	assert.Equal(t, testOwnerAddress, result.Name.OwnerAddress)

	// A transfer from the zero address is recorded as a mint
	assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xmint1", schema.ActivityKindMint))

	t.Run("subsequent transfer reports the previous owner", func(t *testing.T) {
		transfer := TransferInput{
			TokenID:     "42",
			FromAddress: testOwnerAddress,
			ToAddress:   testBuyerAddress,
			TxHash:      "0xxfer1",
			BlockNumber: 9000200,
			Timestamp:   testEventTime.Add(time.Hour),
		}

		result, err := store.RecordTransfer(ctx, transfer)
		require.NoError(t, err)
		assert.Equal(t, testOwnerAddress, result.PreviousOwner)
		assert.Equal(t, testBuyerAddress, result.Name.OwnerAddress)

		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, testBuyerAddress, name.OwnerAddress)
		require.NotNil(t, name.LastTransferAt)

		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xxfer1", schema.ActivityKindTransfer))
	})

	t.Run("replay does not duplicate child rows", func(t *testing.T) {
		_, err := store.RecordTransfer(ctx, mint)
		require.NoError(t, err)

		assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ?", "0xmint1"))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ?", "0xmint1"))
	})
}

// =============================================================================
// Test: SetResolvedName
// =============================================================================

func testSetResolvedName(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, store.SetResolvedName(ctx, "42", "alice.eth"))

	name, err := store.GetNameByName(ctx, "alice.eth")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "42", name.TokenID)

	t.Run("unknown token returns not found", func(t *testing.T) {
		err := store.SetResolvedName(ctx, "999", "bob.eth")
		assert.ErrorIs(t, err, domain.ErrNameNotFound)
	})

	// Keep this last: the unique violation aborts the shared test transaction
	t.Run("display name collision returns duplicate error", func(t *testing.T) {
		_, err := store.EnsureName(ctx, "43")
		require.NoError(t, err)

		err = store.SetResolvedName(ctx, "43", "alice.eth")
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
	})
}

// =============================================================================
// Test: MergeNames
// =============================================================================

func testMergeNames(t *testing.T, store Store) {
	ctx := context.Background()

	// Survivor holds the resolved display name; the duplicate carries the
	// current on-chain state written by the scanners
	survivor, err := store.EnsureName(ctx, "1000")
	require.NoError(t, err)
	require.NoError(t, store.SetResolvedName(ctx, "1000", "alice.eth"))

	_, err = store.RecordTransfer(ctx, TransferInput{
		TokenID:     "2000",
		FromAddress: domain.ETHEREUM_ZERO_ADDRESS,
		ToAddress:   testOwnerAddress,
		TxHash:      "0xmint2000",
		BlockNumber: 9000100,
		Timestamp:   testEventTime,
	})
	require.NoError(t, err)
	duplicate, err := store.GetNameByTokenID(ctx, "2000")
	require.NoError(t, err)

	require.NoError(t, store.UpsertListing(ctx, buildListing(duplicate.ID, "0xorder1", domain.SourceOpenSea)))

	require.NoError(t, store.MergeNames(ctx, survivor.ID, duplicate.ID))

	t.Run("survivor keeps its name and adopts chain state", func(t *testing.T) {
		merged, err := store.GetNameByName(ctx, "alice.eth")
		require.NoError(t, err)
		require.NotNil(t, merged)
		assert.Equal(t, survivor.ID, merged.ID)
		assert.Equal(t, "2000", merged.TokenID)
		assert.Equal(t, testOwnerAddress, merged.OwnerAddress)
	})

	t.Run("duplicate row is gone", func(t *testing.T) {
		assert.Equal(t, int64(0), countRows(t, store, &schema.Name{}, "id = ?", duplicate.ID))
	})

	t.Run("child records point at the survivor", func(t *testing.T) {
		listing, err := store.GetListingByOrderHash(ctx, "0xorder1", domain.SourceOpenSea)
		require.NoError(t, err)
		require.NotNil(t, listing)
		assert.Equal(t, survivor.ID, listing.NameID)

		assert.Equal(t, int64(0), countRows(t, store, &schema.Activity{}, "name_id = ?", duplicate.ID))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "name_id = ? AND ref_hash = ?", survivor.ID, "0xmint2000"))
	})
}

// =============================================================================
// Test: Listings
// =============================================================================

func testUpsertListing(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder1", domain.SourceOpenSea)))

	listing, err := store.GetListingByOrderHash(ctx, "0xorder1", domain.SourceOpenSea)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, schema.ListingStatusActive, listing.Status)
	assert.True(t, listing.Price.Equal(decimal.RequireFromString("1000000000000000000")))

	t.Run("newer listing supersedes the seller's active one", func(t *testing.T) {
		require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder2", domain.SourceOpenSea)))

		first, err := store.GetListingByOrderHash(ctx, "0xorder1", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Equal(t, schema.ListingStatusCancelled, first.Status)

		second, err := store.GetListingByOrderHash(ctx, "0xorder2", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Equal(t, schema.ListingStatusActive, second.Status)
	})

	t.Run("re-listing the same order refreshes the price", func(t *testing.T) {
		input := buildListing(name.ID, "0xorder2", domain.SourceOpenSea)
		input.Price = decimal.RequireFromString("2000000000000000000")
		require.NoError(t, store.UpsertListing(ctx, input))

		listing, err := store.GetListingByOrderHash(ctx, "0xorder2", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Equal(t, schema.ListingStatusActive, listing.Status)
		assert.True(t, listing.Price.Equal(input.Price))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Listing{}, "order_hash = ?", "0xorder2"))
	})

	t.Run("same order hash from another source is a separate row", func(t *testing.T) {
		require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder2", domain.SourceOnchain)))
		assert.Equal(t, int64(2), countRows(t, store, &schema.Listing{}, "order_hash = ?", "0xorder2"))
	})

	t.Run("missing listing reads as nil", func(t *testing.T) {
		listing, err := store.GetListingByOrderHash(ctx, "0xnope", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})
}

func testMarkListingCancelled(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)
	require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder1", domain.SourceOpenSea)))

	require.NoError(t, store.MarkListingCancelled(ctx, "0xorder1", domain.SourceOpenSea))

	listing, err := store.GetListingByOrderHash(ctx, "0xorder1", domain.SourceOpenSea)
	require.NoError(t, err)
	assert.Equal(t, schema.ListingStatusCancelled, listing.Status)

	t.Run("already cancelled listing is not found", func(t *testing.T) {
		err := store.MarkListingCancelled(ctx, "0xorder1", domain.SourceOpenSea)
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})

	t.Run("unknown order hash is not found", func(t *testing.T) {
		err := store.MarkListingCancelled(ctx, "0xnope", domain.SourceOpenSea)
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})
}

// =============================================================================
// Test: Offers
// =============================================================================

func testCreateOffer(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	input := OfferInput{
		NameID:       name.ID,
		OrderHash:    "0xoffer1",
		Source:       domain.SourceOpenSea,
		BuyerAddress: testBuyerAddress,
		Price:        decimal.RequireFromString("500000000000000000"),
		Currency:     "WETH",
		OfferedAt:    testEventTime,
	}

	created, err := store.CreateOffer(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xoffer1", schema.ActivityKindOffer))

	t.Run("offer does not touch ownership", func(t *testing.T) {
		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, name.OwnerAddress)
	})

	t.Run("replayed order hash is skipped", func(t *testing.T) {
		created, err := store.CreateOffer(ctx, input)
		require.NoError(t, err)
		assert.False(t, created)

		assert.Equal(t, int64(1), countRows(t, store, &schema.Offer{}, "order_hash = ?", "0xoffer1"))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ?", "0xoffer1"))
	})
}

// =============================================================================
// Test: Sales
// =============================================================================

func testRecordSale(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	t.Run("sale closes the matching listing", func(t *testing.T) {
		require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder1", domain.SourceOpenSea)))

		created, err := store.RecordSale(ctx, buildSale(name.ID, "0xorder1", "0xsale1", domain.SourceOpenSea))
		require.NoError(t, err)
		assert.True(t, created)

		listing, err := store.GetListingByOrderHash(ctx, "0xorder1", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Equal(t, schema.ListingStatusSold, listing.Status)

		var sale schema.Sale
		require.NoError(t, testDBOf(t, store).Where("order_hash = ?", "0xorder1").First(&sale).Error)
		require.NotNil(t, sale.ListingID)
		assert.Equal(t, listing.ID, *sale.ListingID)

		assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ? AND event_type = ?", "0xsale1", schema.TransactionTypeSale))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ? AND block_number = ?", "0xsale1", 9001000))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xorder1", schema.ActivityKindSale))
	})

	t.Run("fill seen by the other producer closes the listing anyway", func(t *testing.T) {
		require.NoError(t, store.UpsertListing(ctx, buildListing(name.ID, "0xorder2", domain.SourceOpenSea)))

		created, err := store.RecordSale(ctx, buildSale(name.ID, "0xorder2", "0xsale2", domain.SourceOnchain))
		require.NoError(t, err)
		assert.True(t, created)

		listing, err := store.GetListingByOrderHash(ctx, "0xorder2", domain.SourceOpenSea)
		require.NoError(t, err)
		assert.Equal(t, schema.ListingStatusSold, listing.Status)
	})

	t.Run("replayed fill is skipped regardless of source", func(t *testing.T) {
		created, err := store.RecordSale(ctx, buildSale(name.ID, "0xorder1", "0xsale1", domain.SourceOnchain))
		require.NoError(t, err)
		assert.False(t, created)

		assert.Equal(t, int64(1), countRows(t, store, &schema.Sale{}, "order_hash = ?", "0xorder1"))
	})

	t.Run("sale without a listing is recorded on its own", func(t *testing.T) {
		input := buildSale(name.ID, "0xorder3", "0xsale3", domain.SourceOnchain)
		fees := decimal.RequireFromString("25000000000000000")
		input.Fees = &fees

		created, err := store.RecordSale(ctx, input)
		require.NoError(t, err)
		assert.True(t, created)

		var sale schema.Sale
		require.NoError(t, testDBOf(t, store).Where("order_hash = ?", "0xorder3").First(&sale).Error)
		assert.Nil(t, sale.ListingID)
		require.NotNil(t, sale.Fees)
		assert.True(t, sale.Fees.Equal(fees))
	})
}

// =============================================================================
// Test: UpdateOwner
// =============================================================================

func testUpdateOwner(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	at := testEventTime.Add(time.Hour)
	require.NoError(t, store.UpdateOwner(ctx, name.ID, testBuyerAddress, at))

	updated, err := store.GetNameByTokenID(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, testBuyerAddress, updated.OwnerAddress)
	require.NotNil(t, updated.LastTransferAt)
	assert.WithinDuration(t, at, *updated.LastTransferAt, time.Second)

	t.Run("does not write transaction or activity rows", func(t *testing.T) {
		assert.Equal(t, int64(0), countRows(t, store, &schema.Transaction{}, "name_id = ?", name.ID))
		assert.Equal(t, int64(0), countRows(t, store, &schema.Activity{}, "name_id = ?", name.ID))
	})
}

// =============================================================================
// Test: EnrichName
// =============================================================================

func testEnrichName(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	registrationDate := testEventTime.AddDate(-1, 0, 0)
	require.NoError(t, store.EnrichName(ctx, "42", EnrichNameInput{
		Registrant:       testOwnerAddress,
		RegistrationDate: &registrationDate,
		TextRecordKeys:   []string{"url", "avatar"},
	}))

	name, err := store.GetNameByTokenID(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, name.RegistrantAddress)
	assert.Equal(t, testOwnerAddress, *name.RegistrantAddress)
	require.NotNil(t, name.RegistrationDate)
	assert.WithinDuration(t, registrationDate, *name.RegistrationDate, time.Second)
	assert.JSONEq(t, `["url","avatar"]`, string(name.TextRecords))

	t.Run("partial input leaves other columns untouched", func(t *testing.T) {
		require.NoError(t, store.EnrichName(ctx, "42", EnrichNameInput{
			Registrant: testBuyerAddress,
		}))

		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, testBuyerAddress, *name.RegistrantAddress)
		require.NotNil(t, name.RegistrationDate)
		assert.JSONEq(t, `["url","avatar"]`, string(name.TextRecords))
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		require.NoError(t, store.EnrichName(ctx, "42", EnrichNameInput{}))

		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, testBuyerAddress, *name.RegistrantAddress)
	})

	t.Run("ownership is never written here", func(t *testing.T) {
		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, name.OwnerAddress)
	})
}

// =============================================================================
// Test: RecordTransferTransaction
// =============================================================================

func testRecordTransferTransaction(t *testing.T, store Store) {
	ctx := context.Background()

	name, err := store.EnsureName(ctx, "42")
	require.NoError(t, err)

	input := StreamTransferInput{
		NameID:      name.ID,
		FromAddress: testOwnerAddress,
		ToAddress:   testBuyerAddress,
		TxHash:      "0xstream1",
		Timestamp:   testEventTime,
	}

	require.NoError(t, store.RecordTransferTransaction(ctx, input))

	assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ? AND event_type = ?", "0xstream1", schema.TransactionTypeTransfer))
	assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ? AND kind = ?", "0xstream1", schema.ActivityKindTransfer))

	t.Run("owner column is left alone", func(t *testing.T) {
		name, err := store.GetNameByTokenID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, name.OwnerAddress)
		assert.Nil(t, name.LastTransferAt)
	})

	t.Run("replayed tx hash is skipped", func(t *testing.T) {
		require.NoError(t, store.RecordTransferTransaction(ctx, input))

		assert.Equal(t, int64(1), countRows(t, store, &schema.Transaction{}, "tx_hash = ?", "0xstream1"))
		assert.Equal(t, int64(1), countRows(t, store, &schema.Activity{}, "ref_hash = ?", "0xstream1"))
	})
}

// =============================================================================
// Test Runner
// =============================================================================

// RunStoreTests runs the full store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"BlockCursor", testBlockCursor},
		{"RecordRawEventLog", testRecordRawEventLog},
		{"EnsureName", testEnsureName},
		{"RecordRegistration", testRecordRegistration},
		{"RecordRenewal", testRecordRenewal},
		{"RecordTransfer", testRecordTransfer},
		{"SetResolvedName", testSetResolvedName},
		{"MergeNames", testMergeNames},
		{"UpsertListing", testUpsertListing},
		{"MarkListingCancelled", testMarkListingCancelled},
		{"CreateOffer", testCreateOffer},
		{"RecordSale", testRecordSale},
		{"UpdateOwner", testUpdateOwner},
		{"EnrichName", testEnrichName},
		{"RecordTransferTransaction", testRecordTransferTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
