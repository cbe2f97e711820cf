package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/domain"
)

// eventPayload is the marketplace payload shipped inside a Phoenix frame
type eventPayload struct {
	Item struct {
		NftID    string `json:"nft_id"`
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"item"`
	OrderHash string `json:"order_hash"`
	Maker     *struct {
		Address string `json:"address"`
	} `json:"maker"`
	Taker *struct {
		Address string `json:"address"`
	} `json:"taker"`
	BasePrice    string `json:"base_price"`
	SalePrice    string `json:"sale_price"`
	PaymentToken *struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"payment_token"`
	Transaction *struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	EventTimestamp string `json:"event_timestamp"`
	ExpirationDate string `json:"expiration_date"`
}

var streamEventKinds = map[string]domain.StreamEventKind{
	"item_listed":           domain.StreamItemListed,
	"item_sold":             domain.StreamItemSold,
	"item_transferred":      domain.StreamItemTransferred,
	"item_cancelled":        domain.StreamItemCancelled,
	"item_received_bid":     domain.StreamItemReceivedBid,
	"collection_offer":      domain.StreamCollectionOffer,
	"item_metadata_updated": domain.StreamMetadataUpdated,
}

// DecodeEvent normalizes a marketplace stream frame. Decoding is total:
// unrecognized or malformed frames come back as StreamEventKindUnknown with
// the raw payload preserved for logging.
func DecodeEvent(event string, payload json.RawMessage, jsonAdapter adapter.JSON) *domain.StreamEvent {
	decoded := &domain.StreamEvent{
		Kind: domain.StreamEventKindUnknown,
		Raw:  payload,
	}

	kind, ok := streamEventKinds[event]
	if !ok {
		return decoded
	}

	var p eventPayload
	if err := jsonAdapter.Unmarshal(payload, &p); err != nil {
		return decoded
	}

	decoded.Kind = kind
	decoded.Item = domain.StreamItem{
		TokenID: tokenIDFromNftID(p.Item.NftID),
		Name:    p.Item.Metadata.Name,
	}
	decoded.OrderHash = strings.ToLower(p.OrderHash)
	if p.Maker != nil {
		decoded.Maker = strings.ToLower(p.Maker.Address)
	}
	if p.Taker != nil {
		decoded.Taker = strings.ToLower(p.Taker.Address)
	}
	decoded.Price = p.BasePrice
	if p.SalePrice != "" {
		decoded.Price = p.SalePrice
	}
	if p.PaymentToken != nil {
		decoded.Currency = p.PaymentToken.Symbol
		if decoded.Currency == "" {
			decoded.Currency = strings.ToLower(p.PaymentToken.Address)
		}
	}
	if p.Transaction != nil {
		decoded.TxHash = strings.ToLower(p.Transaction.Hash)
	}
	if t, err := time.Parse(time.RFC3339, p.EventTimestamp); err == nil {
		decoded.EventTime = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, p.ExpirationDate); err == nil {
		utc := t.UTC()
		decoded.ExpiresAt = &utc
	}

	return decoded
}

// tokenIDFromNftID extracts the token identifier from a "chain/contract/id"
// triplet. Unparseable ids yield an empty string.
func tokenIDFromNftID(nftID string) string {
	parts := strings.Split(nftID, "/")
	if len(parts) != 3 {
		return ""
	}

	return parts[2]
}
