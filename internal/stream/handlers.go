package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/adapter"
	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/jobs"
	"github.com/grailsmarket/backend-sub000/internal/logger"
	"github.com/grailsmarket/backend-sub000/internal/resolver"
	"github.com/grailsmarket/backend-sub000/internal/store"
	"github.com/grailsmarket/backend-sub000/internal/store/schema"
)

// EventHandler applies marketplace stream events to stored state. Stream
// events touch listings, offers, sales and transfer transactions; ownership
// comes from the chain scanner alone.
type EventHandler struct {
	store     store.Store
	resolver  resolver.Resolver
	publisher jobs.Publisher
	clock     adapter.Clock
}

// NewEventHandler creates a stream event handler
func NewEventHandler(st store.Store, res resolver.Resolver, publisher jobs.Publisher, clock adapter.Clock) *EventHandler {
	return &EventHandler{
		store:     st,
		resolver:  res,
		publisher: publisher,
		clock:     clock,
	}
}

// Handle applies a decoded stream event
func (h *EventHandler) Handle(ctx context.Context, event *domain.StreamEvent) error {
	switch event.Kind {
	case domain.StreamItemListed:
		return h.handleListed(ctx, event)
	case domain.StreamItemSold:
		return h.handleSold(ctx, event)
	case domain.StreamItemCancelled:
		return h.handleCancelled(ctx, event)
	case domain.StreamItemReceivedBid, domain.StreamCollectionOffer:
		return h.handleOffer(ctx, event)
	case domain.StreamItemTransferred:
		return h.handleTransferred(ctx, event)
	case domain.StreamMetadataUpdated:
		return h.handleMetadataUpdated(ctx, event)
	default:
		logger.DebugCtx(ctx, "Ignoring unknown stream event",
			zap.ByteString("payload", event.Raw))
		return nil
	}
}

func (h *EventHandler) handleListed(ctx context.Context, event *domain.StreamEvent) error {
	if event.Item.TokenID == "" || event.OrderHash == "" {
		logger.WarnCtx(ctx, "Dropping listing without token id or order hash",
			zap.ByteString("payload", event.Raw))
		return nil
	}
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return fmt.Errorf("invalid listing price %q: %w", event.Price, err)
	}

	name, err := h.nameFor(ctx, event.Item)
	if err != nil {
		return err
	}

	if err := h.store.UpsertListing(ctx, store.ListingInput{
		NameID:        name.ID,
		OrderHash:     event.OrderHash,
		Source:        domain.SourceOpenSea,
		SellerAddress: event.Maker,
		Price:         price,
		Currency:      event.Currency,
		ExpiresAt:     event.ExpiresAt,
		ListedAt:      event.EventTime,
	}); err != nil {
		return err
	}

	h.publishFloorPriceUpdate(ctx, name)
	return nil
}

func (h *EventHandler) handleSold(ctx context.Context, event *domain.StreamEvent) error {
	if event.Item.TokenID == "" || event.OrderHash == "" {
		logger.WarnCtx(ctx, "Dropping sale without token id or order hash",
			zap.ByteString("payload", event.Raw))
		return nil
	}
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return fmt.Errorf("invalid sale price %q: %w", event.Price, err)
	}

	name, err := h.nameFor(ctx, event.Item)
	if err != nil {
		return err
	}

	created, err := h.store.RecordSale(ctx, store.SaleInput{
		NameID:        name.ID,
		OrderHash:     event.OrderHash,
		Source:        domain.SourceOpenSea,
		SellerAddress: event.Maker,
		BuyerAddress:  event.Taker,
		Price:         price,
		Currency:      event.Currency,
		TxHash:        event.TxHash,
		Timestamp:     event.EventTime,
	})
	if err != nil {
		return err
	}
	if created {
		h.publishFloorPriceUpdate(ctx, name)
	}

	return nil
}

func (h *EventHandler) handleTransferred(ctx context.Context, event *domain.StreamEvent) error {
	if event.Item.TokenID == "" || event.TxHash == "" {
		logger.WarnCtx(ctx, "Dropping transfer without token id or tx hash",
			zap.ByteString("payload", event.Raw))
		return nil
	}

	name, err := h.nameFor(ctx, event.Item)
	if err != nil {
		return err
	}

	// Ownership is reconciled from confirmed chain logs only; the stream
	// transfer contributes the transaction record
	return h.store.RecordTransferTransaction(ctx, store.StreamTransferInput{
		NameID:      name.ID,
		FromAddress: event.Maker,
		ToAddress:   event.Taker,
		TxHash:      event.TxHash,
		Timestamp:   event.EventTime,
	})
}

func (h *EventHandler) handleCancelled(ctx context.Context, event *domain.StreamEvent) error {
	if event.OrderHash == "" {
		return nil
	}

	err := h.store.MarkListingCancelled(ctx, event.OrderHash, domain.SourceOpenSea)
	if errors.Is(err, domain.ErrListingNotFound) {
		// Cancellations can arrive for listings created before our cursor
		return nil
	}

	return err
}

func (h *EventHandler) handleOffer(ctx context.Context, event *domain.StreamEvent) error {
	if event.Item.TokenID == "" || event.OrderHash == "" {
		logger.WarnCtx(ctx, "Dropping offer without token id or order hash",
			zap.ByteString("payload", event.Raw))
		return nil
	}
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return fmt.Errorf("invalid offer price %q: %w", event.Price, err)
	}

	name, err := h.nameFor(ctx, event.Item)
	if err != nil {
		return err
	}

	_, err = h.store.CreateOffer(ctx, store.OfferInput{
		NameID:       name.ID,
		OrderHash:    event.OrderHash,
		Source:       domain.SourceOpenSea,
		BuyerAddress: event.Maker,
		Price:        price,
		Currency:     event.Currency,
		ExpiresAt:    event.ExpiresAt,
		OfferedAt:    event.EventTime,
	})

	return err
}

func (h *EventHandler) handleMetadataUpdated(ctx context.Context, event *domain.StreamEvent) error {
	if event.Item.TokenID == "" {
		return nil
	}

	name, err := h.nameFor(ctx, event.Item)
	if err != nil {
		return err
	}

	job := domain.NameResyncJob{TokenID: name.TokenID, Name: name.Name}
	if err := h.publisher.Publish(ctx, domain.QueueNameResync, job); err != nil {
		logger.WarnCtx(ctx, "Failed to publish name-resync job",
			zap.String("token_id", name.TokenID),
			zap.Error(err))
	}

	return nil
}

// nameFor finds or creates the name row a stream event belongs to. The
// marketplace-supplied token id and display name are unreliable, so the
// subgraph is consulted first and the canonical token id correction applied.
func (h *EventHandler) nameFor(ctx context.Context, item domain.StreamItem) (*schema.Name, error) {
	tokenID := item.TokenID
	displayName := ""

	resolved, err := h.resolver.Resolve(ctx, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to resolve stream token",
			zap.String("token_id", tokenID),
			zap.Error(err))
	} else if resolved != nil {
		tokenID = resolver.CanonicalTokenID(resolved, h.clock.Now())
		displayName = resolved.Name
	}
	if displayName == "" && domain.IsCanonicalName(item.Name) {
		displayName = item.Name
	}

	name, err := h.store.EnsureName(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if displayName == "" || name.Name == displayName {
		return name, nil
	}

	err = h.store.SetResolvedName(ctx, tokenID, displayName)
	switch {
	case err == nil:
		name.Name = displayName
	case errors.Is(err, domain.ErrDuplicateName):
		// Another row already carries this name. Fold the placeholder row
		// into it so its records and token id move over instead of leaving
		// an orphaned row behind.
		survivor, getErr := h.store.GetNameByName(ctx, displayName)
		if getErr != nil {
			return nil, getErr
		}
		if survivor != nil {
			if survivor.ID != name.ID {
				if mergeErr := h.store.MergeNames(ctx, survivor.ID, name.ID); mergeErr != nil {
					logger.ErrorCtx(ctx, mergeErr,
						zap.String("message", "Failed to merge duplicate name"),
						zap.String("token_id", tokenID),
						zap.String("name", displayName))
				}
			}
			return survivor, nil
		}
	default:
		logger.WarnCtx(ctx, "Failed to store resolved name",
			zap.String("token_id", tokenID),
			zap.Error(err))
	}

	return name, nil
}

func (h *EventHandler) publishFloorPriceUpdate(ctx context.Context, name *schema.Name) {
	job := domain.ClubFloorPriceJob{TokenID: name.TokenID, Name: name.Name}
	if err := h.publisher.Publish(ctx, domain.QueueClubFloorPriceUpdate, job); err != nil {
		logger.WarnCtx(ctx, "Failed to publish club-floor-price-update job",
			zap.String("token_id", name.TokenID),
			zap.Error(err))
	}
}
