package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/jobs"
	"github.com/grailsmarket/backend-sub000/internal/logger"
	"github.com/grailsmarket/backend-sub000/internal/store"
)

// Marketplace order item types
const (
	ITEM_TYPE_NATIVE        = 0
	ITEM_TYPE_ERC20         = 1
	ITEM_TYPE_ERC721        = 2
	ITEM_TYPE_ERC1155       = 3
	ITEM_TYPE_ERC721_W_CRIT = 4
)

// NATIVE_CURRENCY is the currency label stored for native-asset payments
const NATIVE_CURRENCY = "ETH"

const marketplaceABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "orderHash", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "offerer", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "zone", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "recipient", "type": "address"},
      {
        "components": [
          {"internalType": "uint8", "name": "itemType", "type": "uint8"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "identifier", "type": "uint256"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"}
        ],
        "indexed": false, "internalType": "struct SpentItem[]", "name": "offer", "type": "tuple[]"
      },
      {
        "components": [
          {"internalType": "uint8", "name": "itemType", "type": "uint8"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "identifier", "type": "uint256"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"},
          {"internalType": "address payable", "name": "recipient", "type": "address"}
        ],
        "indexed": false, "internalType": "struct ReceivedItem[]", "name": "consideration", "type": "tuple[]"
      }
    ],
    "name": "OrderFulfilled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "orderHash", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "offerer", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "zone", "type": "address"}
    ],
    "name": "OrderCancelled",
    "type": "event"
  }
]`

var marketplaceABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(marketplaceABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid marketplace ABI: %v", err))
	}
	return parsed
}()

var (
	orderFulfilledEventSignature = marketplaceABI.Events["OrderFulfilled"].ID
	orderCancelledEventSignature = marketplaceABI.Events["OrderCancelled"].ID
)

type orderFulfilledData struct {
	OrderHash [32]byte
	Recipient common.Address
	Offer     []struct {
		ItemType   uint8
		Token      common.Address
		Identifier *big.Int
		Amount     *big.Int
	}
	Consideration []struct {
		ItemType   uint8
		Token      common.Address
		Identifier *big.Int
		Amount     *big.Int
		Recipient  common.Address
	}
}

type orderCancelledData struct {
	OrderHash [32]byte
}

// MarketplaceDecoder decodes marketplace settlement logs
type MarketplaceDecoder struct{}

// NewMarketplaceDecoder creates a decoder for marketplace events
func NewMarketplaceDecoder() *MarketplaceDecoder {
	return &MarketplaceDecoder{}
}

// Topics returns the event signatures the decoder handles
func (d *MarketplaceDecoder) Topics() []common.Hash {
	return []common.Hash{
		orderFulfilledEventSignature,
		orderCancelledEventSignature,
	}
}

// Decode parses a raw marketplace log into a normalized event
func (d *MarketplaceDecoder) Decode(l types.Log) (*domain.ChainEvent, error) {
	event := &domain.ChainEvent{
		Kind:            domain.ChainEventUnknown,
		ContractAddress: strings.ToLower(l.Address.Hex()),
		TxHash:          l.TxHash.Hex(),
		BlockNumber:     l.BlockNumber,
		LogIndex:        l.Index,
	}
	if len(l.Topics) == 0 {
		return event, nil
	}

	switch l.Topics[0] {
	case orderFulfilledEventSignature:
		if len(l.Topics) != 3 {
			return event, nil
		}
		var data orderFulfilledData
		if err := marketplaceABI.UnpackIntoInterface(&data, "OrderFulfilled", l.Data); err != nil {
			return nil, fmt.Errorf("failed to decode OrderFulfilled data: %w", err)
		}

		event.Kind = domain.ChainEventOrderFulfilled
		event.OrderHash = common.Hash(data.OrderHash).Hex()
		event.Offerer = topicAddress(l.Topics[1])
		event.Recipient = strings.ToLower(data.Recipient.Hex())
		for _, item := range data.Offer {
			event.OfferItems = append(event.OfferItems, domain.OrderItem{
				ItemType:   item.ItemType,
				Token:      strings.ToLower(item.Token.Hex()),
				Identifier: item.Identifier.String(),
				Amount:     item.Amount.String(),
			})
		}
		for _, item := range data.Consideration {
			event.ConsiderationItems = append(event.ConsiderationItems, domain.OrderItem{
				ItemType:   item.ItemType,
				Token:      strings.ToLower(item.Token.Hex()),
				Identifier: item.Identifier.String(),
				Amount:     item.Amount.String(),
				Recipient:  strings.ToLower(item.Recipient.Hex()),
			})
		}

	case orderCancelledEventSignature:
		if len(l.Topics) != 3 {
			return event, nil
		}
		var data orderCancelledData
		if err := marketplaceABI.UnpackIntoInterface(&data, "OrderCancelled", l.Data); err != nil {
			return nil, fmt.Errorf("failed to decode OrderCancelled data: %w", err)
		}

		event.Kind = domain.ChainEventOrderCancelled
		event.OrderHash = common.Hash(data.OrderHash).Hex()
		event.Offerer = topicAddress(l.Topics[1])
	}

	return event, nil
}

// MarketplaceReconciler applies marketplace settlement events to listings
// and sales. Only orders touching the registrar collection are recorded.
type MarketplaceReconciler struct {
	store            store.Store
	publisher        jobs.Publisher
	registrarAddress string
}

// NewMarketplaceReconciler creates a reconciler for marketplace events
func NewMarketplaceReconciler(st store.Store, publisher jobs.Publisher, registrarAddress string) *MarketplaceReconciler {
	return &MarketplaceReconciler{
		store:            st,
		publisher:        publisher,
		registrarAddress: strings.ToLower(registrarAddress),
	}
}

// Reconcile applies a decoded marketplace event
func (r *MarketplaceReconciler) Reconcile(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	switch event.Kind {
	case domain.ChainEventOrderFulfilled:
		return r.reconcileFulfilled(ctx, event, timestamp)
	case domain.ChainEventOrderCancelled:
		return r.reconcileCancelled(ctx, event)
	default:
		return fmt.Errorf("unexpected marketplace event kind %s", event.Kind)
	}
}

func (r *MarketplaceReconciler) reconcileFulfilled(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	input, ok := r.buildSale(event, timestamp)
	if !ok {
		// The order settled some other collection
		return nil
	}

	name, err := r.store.EnsureName(ctx, input.tokenID)
	if err != nil {
		return err
	}
	input.sale.NameID = name.ID

	created, err := r.store.RecordSale(ctx, input.sale)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	// A fill moves the name to the buyer. Guarded by created so a replayed
	// old fill cannot clobber ownership written by a later event.
	if err := r.store.UpdateOwner(ctx, name.ID, input.sale.BuyerAddress, timestamp); err != nil {
		return err
	}

	job := domain.ClubFloorPriceJob{TokenID: input.tokenID, Name: name.Name}
	if err := r.publisher.Publish(ctx, domain.QueueClubFloorPriceUpdate, job); err != nil {
		logger.WarnCtx(ctx, "Failed to publish club-floor-price-update job",
			zap.String("token_id", input.tokenID),
			zap.Error(err))
	}

	return nil
}

func (r *MarketplaceReconciler) reconcileCancelled(ctx context.Context, event *domain.ChainEvent) error {
	err := r.store.MarkListingCancelled(ctx, event.OrderHash, domain.SourceOnchain)
	if errors.Is(err, domain.ErrListingNotFound) {
		// Cancellations for orders never listed with us are expected
		return nil
	}

	return err
}

type saleDetails struct {
	tokenID string
	sale    store.SaleInput
}

// buildSale extracts the name item and the payment leg from an order. It
// reports false when the order does not involve the registrar collection.
func (r *MarketplaceReconciler) buildSale(event *domain.ChainEvent, timestamp time.Time) (*saleDetails, bool) {
	if item, ok := r.findNameItem(event.OfferItems); ok {
		// Listing direction: the offerer gives up the name
		price, fees, currency := paymentLeg(event.ConsiderationItems, event.Offerer)
		return &saleDetails{
			tokenID: item.Identifier,
			sale: store.SaleInput{
				OrderHash:     event.OrderHash,
				Source:        domain.SourceOnchain,
				SellerAddress: event.Offerer,
				BuyerAddress:  event.Recipient,
				Price:         price,
				Currency:      currency,
				Fees:          fees,
				TxHash:        event.TxHash,
				BlockNumber:   event.BlockNumber,
				Timestamp:     timestamp,
			},
		}, true
	}

	if item, ok := r.findNameItem(event.ConsiderationItems); ok {
		// Bid direction: the offerer pays and receives the name
		price, _, currency := paymentLeg(event.OfferItems, event.Offerer)
		return &saleDetails{
			tokenID: item.Identifier,
			sale: store.SaleInput{
				OrderHash:     event.OrderHash,
				Source:        domain.SourceOnchain,
				SellerAddress: event.Recipient,
				BuyerAddress:  event.Offerer,
				Price:         price,
				Currency:      currency,
				TxHash:        event.TxHash,
				BlockNumber:   event.BlockNumber,
				Timestamp:     timestamp,
			},
		}, true
	}

	return nil, false
}

func (r *MarketplaceReconciler) findNameItem(items []domain.OrderItem) (*domain.OrderItem, bool) {
	for i := range items {
		item := &items[i]
		if item.Token != r.registrarAddress {
			continue
		}
		switch item.ItemType {
		case ITEM_TYPE_ERC721, ITEM_TYPE_ERC1155, ITEM_TYPE_ERC721_W_CRIT:
			return item, true
		}
	}

	return nil, false
}

// paymentLeg totals the currency items on one side of an order. Fees are the
// amounts routed to parties other than the seller.
func paymentLeg(items []domain.OrderItem, seller string) (decimal.Decimal, *decimal.Decimal, string) {
	total := new(big.Int)
	feeTotal := new(big.Int)
	currency := NATIVE_CURRENCY

	for i := range items {
		item := &items[i]
		if item.ItemType != ITEM_TYPE_NATIVE && item.ItemType != ITEM_TYPE_ERC20 {
			continue
		}
		amount, ok := new(big.Int).SetString(item.Amount, 10)
		if !ok {
			continue
		}
		total.Add(total, amount)
		if item.Recipient != "" && item.Recipient != seller {
			feeTotal.Add(feeTotal, amount)
		}
		if item.ItemType == ITEM_TYPE_ERC20 && item.Token != domain.ETHEREUM_ZERO_ADDRESS {
			currency = item.Token
		}
	}

	price := decimal.NewFromBigInt(total, 0)
	if feeTotal.Sign() == 0 {
		return price, nil, currency
	}
	fees := decimal.NewFromBigInt(feeTotal, 0)

	return price, &fees, currency
}
