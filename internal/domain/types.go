package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ETHEREUM_ZERO_ADDRESS is the zero address used for mints and burns
const ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

// Source identifies which producer originated a marketplace record
type Source string

const (
	// SourceOnchain marks records produced by the chain log scanners
	SourceOnchain Source = "onchain"
	// SourceOpenSea marks records produced by the marketplace stream client
	SourceOpenSea Source = "opensea"
)

// ChainEventKind tags decoded on-chain log events
type ChainEventKind string

const (
	ChainEventTransfer       ChainEventKind = "transfer"
	ChainEventNameRegistered ChainEventKind = "name_registered"
	ChainEventNameRenewed    ChainEventKind = "name_renewed"
	ChainEventOrderFulfilled ChainEventKind = "order_fulfilled"
	ChainEventOrderCancelled ChainEventKind = "order_cancelled"
	ChainEventUnknown        ChainEventKind = "unknown"
)

// OrderItem is a single offer or consideration item of a marketplace order.
// Recipient is set for consideration items only.
type OrderItem struct {
	ItemType   uint8  `json:"item_type"`
	Token      string `json:"token"`
	Identifier string `json:"identifier"` // decimal token identifier
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient,omitempty"`
}

// ChainEvent is a decoded on-chain log, normalized across the monitored
// contracts. Kind selects which fields are populated; ChainEventUnknown
// carries only the envelope plus Raw for logging.
type ChainEvent struct {
	Kind            ChainEventKind `json:"kind"`
	ContractAddress string         `json:"contract_address"`
	TxHash          string         `json:"tx_hash"`
	BlockNumber     uint64         `json:"block_number"`
	LogIndex        uint           `json:"log_index"`

	// Transfer
	FromAddress string `json:"from_address,omitempty"`
	ToAddress   string `json:"to_address,omitempty"`

	// Registrar events (transfer, registration, renewal)
	TokenID string     `json:"token_id,omitempty"` // decimal uint256
	Owner   string     `json:"owner,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`

	// Marketplace order events
	OrderHash          string      `json:"order_hash,omitempty"`
	Offerer            string      `json:"offerer,omitempty"`
	Recipient          string      `json:"recipient,omitempty"`
	OfferItems         []OrderItem `json:"offer_items,omitempty"`
	ConsiderationItems []OrderItem `json:"consideration_items,omitempty"`

	// Raw carries the undecoded payload for unknown events
	Raw json.RawMessage `json:"raw,omitempty"`
}

// StreamEventKind tags inbound marketplace stream messages
type StreamEventKind string

const (
	StreamItemListed       StreamEventKind = "item_listed"
	StreamItemSold         StreamEventKind = "item_sold"
	StreamItemTransferred  StreamEventKind = "item_transferred"
	StreamItemCancelled    StreamEventKind = "item_cancelled"
	StreamItemReceivedBid  StreamEventKind = "item_received_bid"
	StreamCollectionOffer  StreamEventKind = "collection_offer"
	StreamMetadataUpdated  StreamEventKind = "item_metadata_updated"
	StreamEventKindUnknown StreamEventKind = "unknown"
)

// StreamItem identifies the token an inbound stream message refers to
type StreamItem struct {
	TokenID string // decimal uint256, extracted from the nft_id triplet
	Name    string // third-party supplied display name, unreliable
}

// StreamEvent is a decoded marketplace stream message. Decoding is total:
// unrecognized event names map to StreamEventKindUnknown with Raw preserved.
type StreamEvent struct {
	Kind      StreamEventKind
	Item      StreamItem
	OrderHash string
	Maker     string
	Taker     string
	Price     string // base-unit amount as decimal string
	Currency  string
	TxHash    string
	EventTime time.Time
	ExpiresAt *time.Time
	Raw       json.RawMessage
}

// JobQueue names an outbound queue consumed by external collaborators
type JobQueue string

const (
	QueueOwnershipChanged     JobQueue = "ownership-changed"
	QueueNameResync           JobQueue = "name-resync"
	QueueClubFloorPriceUpdate JobQueue = "club-floor-price-update"
)

// OwnershipChangedJob notifies collaborators that a name changed hands
type OwnershipChangedJob struct {
	TokenID       string `json:"token_id"`
	Name          string `json:"name"`
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
	TxHash        string `json:"tx_hash"`
}

// NameResyncJob asks collaborators to re-sync a name's derived state
type NameResyncJob struct {
	TokenID string `json:"token_id"`
	Name    string `json:"name"`
}

// ClubFloorPriceJob asks collaborators to recompute club floor prices after
// a listing or sale touched one of the member names
type ClubFloorPriceJob struct {
	TokenID string `json:"token_id"`
	Name    string `json:"name"`
}

// PlaceholderName returns the synthetic display name stored for a token
// whose real name has not been resolved yet
func PlaceholderName(tokenID string) string {
	return fmt.Sprintf("token-%s", tokenID)
}

// IsPlaceholderName reports whether a stored display name is a synthetic placeholder
func IsPlaceholderName(name string) bool {
	return strings.HasPrefix(name, "token-")
}

var canonicalNameRe = regexp.MustCompile(`^[^\s.]+\.eth$`)

// IsCanonicalName reports whether a third-party supplied display name looks
// like a real registered name rather than marketplace junk. Non-canonical
// names must be re-resolved before storage.
func IsCanonicalName(name string) bool {
	if name == "" || IsPlaceholderName(name) {
		return false
	}
	if name != strings.ToLower(name) {
		return false
	}
	return canonicalNameRe.MatchString(name)
}
