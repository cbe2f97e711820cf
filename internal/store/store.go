package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/store/schema"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore

// RegistrationInput carries a decoded registration event into the store
type RegistrationInput struct {
	TokenID     string
	Owner       string
	Expires     time.Time
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
}

// RenewalInput carries a decoded renewal event into the store
type RenewalInput struct {
	TokenID     string
	Expires     time.Time
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
}

// TransferInput carries a decoded transfer event into the store
type TransferInput struct {
	TokenID     string
	FromAddress string
	ToAddress   string
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
}

// TransferResult reports the outcome of a recorded transfer. PreviousOwner
// is the owner before this transfer was applied, which callers need for
// ownership-changed notifications.
type TransferResult struct {
	Name          *schema.Name
	PreviousOwner string
}

// ListingInput carries a normalized sell order into the store
type ListingInput struct {
	NameID        uint64
	OrderHash     string
	Source        domain.Source
	SellerAddress string
	Price         decimal.Decimal
	Currency      string
	ExpiresAt     *time.Time
	ListedAt      time.Time
}

// OfferInput carries a normalized buy offer into the store
type OfferInput struct {
	NameID       uint64
	OrderHash    string
	Source       domain.Source
	BuyerAddress string
	Price        decimal.Decimal
	Currency     string
	ExpiresAt    *time.Time
	OfferedAt    time.Time
}

// SaleInput carries a completed purchase into the store. BlockNumber is zero
// for stream-sourced sales, which carry no block information.
type SaleInput struct {
	NameID        uint64
	OrderHash     string
	Source        domain.Source
	SellerAddress string
	BuyerAddress  string
	Price         decimal.Decimal
	Currency      string
	Fees          *decimal.Decimal
	TxHash        string
	BlockNumber   uint64
	Timestamp     time.Time
}

// StreamTransferInput carries a marketplace-reported transfer into the store
type StreamTransferInput struct {
	NameID      uint64
	FromAddress string
	ToAddress   string
	TxHash      string
	Timestamp   time.Time
}

// EnrichNameInput carries resolver-sourced profile fields for a name.
// Ownership is never written here; the chain is the ownership authority.
type EnrichNameInput struct {
	Registrant       string
	RegistrationDate *time.Time
	TextRecordKeys   []string
}

// Store defines the interface for database operations
type Store interface {
	// GetBlockCursor retrieves the last processed block number for a contract
	GetBlockCursor(ctx context.Context, contractAddress string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a contract
	SetBlockCursor(ctx context.Context, contractAddress string, blockNumber uint64) error

	// RecordRawEventLog appends a decoded log to the audit trail. It returns
	// false when the (tx_hash, log_index) pair was already recorded.
	RecordRawEventLog(ctx context.Context, log schema.RawEventLog) (bool, error)

	// GetNameByTokenID retrieves a name by its token identifier
	GetNameByTokenID(ctx context.Context, tokenID string) (*schema.Name, error)
	// GetNameByName retrieves a name by its display name
	GetNameByName(ctx context.Context, name string) (*schema.Name, error)
	// EnsureName gets the name row for a token, creating a placeholder row
	// if none exists yet
	EnsureName(ctx context.Context, tokenID string) (*schema.Name, error)

	// RecordRegistration applies a registration event: name row, transaction
	// and mint activity in a single database transaction
	RecordRegistration(ctx context.Context, input RegistrationInput) error
	// RecordRenewal applies a renewal event to an existing name
	RecordRenewal(ctx context.Context, input RenewalInput) error
	// RecordTransfer applies an ownership transfer and reports the previous owner
	RecordTransfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	// RecordTransferTransaction appends the transaction and activity rows for
	// a transfer without touching the owner column
	RecordTransferTransaction(ctx context.Context, input StreamTransferInput) error
	// UpdateOwner sets the current owner of a name
	UpdateOwner(ctx context.Context, nameID uint64, owner string, at time.Time) error
	// EnrichName writes resolver-sourced profile fields onto a name row
	EnrichName(ctx context.Context, tokenID string, input EnrichNameInput) error

	// SetResolvedName replaces a placeholder display name with the resolved
	// one. Returns domain.ErrDuplicateName when another row already holds it.
	SetResolvedName(ctx context.Context, tokenID string, name string) error
	// MergeNames re-points child records from the duplicate row to the
	// survivor and deletes the duplicate
	MergeNames(ctx context.Context, survivorID uint64, duplicateID uint64) error

	// UpsertListing creates or refreshes a listing and cancels the seller's
	// other active listings for the same name and source
	UpsertListing(ctx context.Context, input ListingInput) error
	// GetListingByOrderHash retrieves a listing by order hash and source
	GetListingByOrderHash(ctx context.Context, orderHash string, source domain.Source) (*schema.Listing, error)
	// MarkListingCancelled transitions a listing to cancelled
	MarkListingCancelled(ctx context.Context, orderHash string, source domain.Source) error

	// CreateOffer records a buy offer. Returns false on order hash replay.
	CreateOffer(ctx context.Context, input OfferInput) (bool, error)
	// RecordSale records a completed purchase, closes the matching listing and
	// appends the sale transaction and activity. Returns false on replay.
	RecordSale(ctx context.Context, input SaleInput) (bool, error)
}
