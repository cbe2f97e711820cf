package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/jobs"
	"github.com/grailsmarket/backend-sub000/internal/logger"
	"github.com/grailsmarket/backend-sub000/internal/resolver"
	"github.com/grailsmarket/backend-sub000/internal/store"
)

// Registrar event signatures
var (
	// Transfer(address indexed from, address indexed to, uint256 indexed tokenId)
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// NameRegistered(uint256 indexed id, address indexed owner, uint256 expires)
	nameRegisteredEventSignature = crypto.Keccak256Hash([]byte("NameRegistered(uint256,address,uint256)"))

	// NameRenewed(uint256 indexed id, uint256 expires)
	nameRenewedEventSignature = crypto.Keccak256Hash([]byte("NameRenewed(uint256,uint256)"))
)

// RegistrarDecoder decodes base registrar logs
type RegistrarDecoder struct{}

// NewRegistrarDecoder creates a decoder for registrar events
func NewRegistrarDecoder() *RegistrarDecoder {
	return &RegistrarDecoder{}
}

// Topics returns the event signatures the decoder handles
func (d *RegistrarDecoder) Topics() []common.Hash {
	return []common.Hash{
		transferEventSignature,
		nameRegisteredEventSignature,
		nameRenewedEventSignature,
	}
}

// Decode parses a raw registrar log into a normalized event
func (d *RegistrarDecoder) Decode(l types.Log) (*domain.ChainEvent, error) {
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
	case transferEventSignature:
		// The fungible-token Transfer shares this signature but carries only
		// three topics; those logs stay unknown
		if len(l.Topics) != 4 {
			return event, nil
		}
		event.Kind = domain.ChainEventTransfer
		event.FromAddress = topicAddress(l.Topics[1])
		event.ToAddress = topicAddress(l.Topics[2])
		event.TokenID = topicUint256(l.Topics[3])

	case nameRegisteredEventSignature:
		if len(l.Topics) != 3 {
			return event, nil
		}
		expires, err := dataUint256(l.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode NameRegistered data: %w", err)
		}
		event.Kind = domain.ChainEventNameRegistered
		event.TokenID = topicUint256(l.Topics[1])
		event.Owner = topicAddress(l.Topics[2])
		event.Expires = expires

	case nameRenewedEventSignature:
		if len(l.Topics) != 2 {
			return event, nil
		}
		expires, err := dataUint256(l.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode NameRenewed data: %w", err)
		}
		event.Kind = domain.ChainEventNameRenewed
		event.TokenID = topicUint256(l.Topics[1])
		event.Expires = expires
	}

	return event, nil
}

func topicAddress(t common.Hash) string {
	return strings.ToLower(common.BytesToAddress(t.Bytes()).Hex())
}

func topicUint256(t common.Hash) string {
	return new(big.Int).SetBytes(t.Bytes()).String()
}

func dataUint256(data []byte) (*time.Time, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("expected 32 bytes of data, got %d", len(data))
	}
	seconds := new(big.Int).SetBytes(data[:32])
	if !seconds.IsInt64() {
		return nil, fmt.Errorf("timestamp %s out of range", seconds)
	}
	t := time.Unix(seconds.Int64(), 0).UTC()

	return &t, nil
}

// RegistrarReconciler applies registrar events to the name records and
// notifies collaborators of ownership changes
type RegistrarReconciler struct {
	store     store.Store
	resolver  resolver.Resolver
	publisher jobs.Publisher
}

// NewRegistrarReconciler creates a reconciler for registrar events
func NewRegistrarReconciler(st store.Store, res resolver.Resolver, publisher jobs.Publisher) *RegistrarReconciler {
	return &RegistrarReconciler{
		store:     st,
		resolver:  res,
		publisher: publisher,
	}
}

// Reconcile applies a decoded registrar event
func (r *RegistrarReconciler) Reconcile(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	switch event.Kind {
	case domain.ChainEventTransfer:
		return r.reconcileTransfer(ctx, event, timestamp)
	case domain.ChainEventNameRegistered:
		return r.reconcileRegistration(ctx, event, timestamp)
	case domain.ChainEventNameRenewed:
		return r.reconcileRenewal(ctx, event, timestamp)
	default:
		return fmt.Errorf("unexpected registrar event kind %s", event.Kind)
	}
}

func (r *RegistrarReconciler) reconcileTransfer(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	tokenID, resolved := r.canonicalTokenID(ctx, event.TokenID, timestamp)
	result, err := r.store.RecordTransfer(ctx, store.TransferInput{
		TokenID:     tokenID,
		FromAddress: event.FromAddress,
		ToAddress:   event.ToAddress,
		TxHash:      event.TxHash,
		BlockNumber: event.BlockNumber,
		Timestamp:   timestamp,
	})
	if err != nil {
		return err
	}

	name := result.Name.Name
	if domain.IsPlaceholderName(name) && resolved != nil {
		if applied := r.applyResolvedName(ctx, tokenID, resolved); applied != "" {
			name = applied
		}
	}

	job := domain.OwnershipChangedJob{
		TokenID:       tokenID,
		Name:          name,
		PreviousOwner: result.PreviousOwner,
		NewOwner:      event.ToAddress,
		TxHash:        event.TxHash,
	}
	if err := r.publisher.Publish(ctx, domain.QueueOwnershipChanged, job); err != nil {
		logger.WarnCtx(ctx, "Failed to publish ownership-changed job",
			zap.String("token_id", tokenID),
			zap.Error(err))
	}

	return nil
}

func (r *RegistrarReconciler) reconcileRegistration(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	var expires time.Time
	if event.Expires != nil {
		expires = *event.Expires
	}
	tokenID, resolved := r.canonicalTokenID(ctx, event.TokenID, timestamp)
	if err := r.store.RecordRegistration(ctx, store.RegistrationInput{
		TokenID:     tokenID,
		Owner:       event.Owner,
		Expires:     expires,
		TxHash:      event.TxHash,
		BlockNumber: event.BlockNumber,
		Timestamp:   timestamp,
	}); err != nil {
		return err
	}

	var name string
	if resolved != nil {
		name = r.applyResolvedName(ctx, tokenID, resolved)
	}
	if name == "" {
		name = domain.PlaceholderName(tokenID)
	}

	job := domain.NameResyncJob{TokenID: tokenID, Name: name}
	if err := r.publisher.Publish(ctx, domain.QueueNameResync, job); err != nil {
		logger.WarnCtx(ctx, "Failed to publish name-resync job",
			zap.String("token_id", tokenID),
			zap.Error(err))
	}

	return nil
}

func (r *RegistrarReconciler) reconcileRenewal(ctx context.Context, event *domain.ChainEvent, timestamp time.Time) error {
	var expires time.Time
	if event.Expires != nil {
		expires = *event.Expires
	}
	tokenID, _ := r.canonicalTokenID(ctx, event.TokenID, timestamp)

	return r.store.RecordRenewal(ctx, store.RenewalInput{
		TokenID:     tokenID,
		Expires:     expires,
		TxHash:      event.TxHash,
		BlockNumber: event.BlockNumber,
		Timestamp:   timestamp,
	})
}

// canonicalTokenID resolves the event's name and substitutes the corrected
// token id before anything is written. Registrar events always carry the
// label hash id, but a wrapped, unexpired name lives under its full-name node
// hash; writing the raw id would split such a name across two rows. When the
// subgraph cannot resolve the token the raw id is kept.
func (r *RegistrarReconciler) canonicalTokenID(ctx context.Context, tokenID string, now time.Time) (string, *resolver.ResolvedName) {
	resolved, err := r.resolver.Resolve(ctx, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to resolve name",
			zap.String("token_id", tokenID),
			zap.Error(err))
		return tokenID, nil
	}
	if resolved == nil {
		return tokenID, nil
	}

	return resolver.CanonicalTokenID(resolved, now), resolved
}

// applyResolvedName replaces a placeholder with the registered name and
// writes the resolver-sourced profile fields. Best effort; tokens that fail
// here stay on their placeholder and get picked up on the next event.
func (r *RegistrarReconciler) applyResolvedName(ctx context.Context, tokenID string, resolved *resolver.ResolvedName) string {
	err := r.store.SetResolvedName(ctx, tokenID, resolved.Name)
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		if mergeErr := r.mergeDuplicate(ctx, tokenID, resolved.Name); mergeErr != nil {
			logger.ErrorCtx(ctx, mergeErr,
				zap.String("message", "Failed to merge duplicate name"),
				zap.String("token_id", tokenID),
				zap.String("name", resolved.Name))
			return ""
		}
	case errors.Is(err, domain.ErrNameNotFound):
		return ""
	case err != nil:
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to store resolved name"),
			zap.String("token_id", tokenID))
		return ""
	}

	enrich := store.EnrichNameInput{
		Registrant:       resolved.Registrant,
		RegistrationDate: resolved.RegistrationDate,
		TextRecordKeys:   resolved.Texts,
	}
	if err := r.store.EnrichName(ctx, tokenID, enrich); err != nil {
		logger.WarnCtx(ctx, "Failed to enrich name",
			zap.String("token_id", tokenID),
			zap.Error(err))
	}

	return resolved.Name
}

// mergeDuplicate folds this token's placeholder row into the row already
// holding the resolved name. The chain-written row carries the current token
// id and owner, so the survivor adopts them.
func (r *RegistrarReconciler) mergeDuplicate(ctx context.Context, tokenID, name string) error {
	survivor, err := r.store.GetNameByName(ctx, name)
	if err != nil {
		return err
	}
	duplicate, err := r.store.GetNameByTokenID(ctx, tokenID)
	if err != nil {
		return err
	}
	if survivor == nil || duplicate == nil || survivor.ID == duplicate.ID {
		// The collision resolved itself between the write and the re-read
		return nil
	}

	return r.store.MergeNames(ctx, survivor.ID, duplicate.ID)
}
