package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grailsmarket/backend-sub000/internal/domain"
	"github.com/grailsmarket/backend-sub000/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetBlockCursor retrieves the last processed block number for a contract
func (s *pgStore) GetBlockCursor(ctx context.Context, contractAddress string) (uint64, error) {
	var cursor schema.Cursor
	err := s.db.WithContext(ctx).Where("contract_address = ?", contractAddress).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // Return 0 if no cursor exists
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	return cursor.BlockNumber, nil
}

// SetBlockCursor stores the last processed block number for a contract
func (s *pgStore) SetBlockCursor(ctx context.Context, contractAddress string, blockNumber uint64) error {
	cursor := schema.Cursor{
		ContractAddress: contractAddress,
		BlockNumber:     blockNumber,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_number", "updated_at"}),
	}).Create(&cursor).Error; err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}

// RecordRawEventLog appends a decoded log to the audit trail
func (s *pgStore) RecordRawEventLog(ctx context.Context, log schema.RawEventLog) (bool, error) {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(&log).Error; err != nil {
		return false, fmt.Errorf("failed to record raw event log: %w", err)
	}

	// ID == 0 means the (tx_hash, log_index) pair was already recorded
	return log.ID != 0, nil
}

// GetNameByTokenID retrieves a name by its token identifier
func (s *pgStore) GetNameByTokenID(ctx context.Context, tokenID string) (*schema.Name, error) {
	var name schema.Name
	err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get name by token id: %w", err)
	}

	return &name, nil
}

// GetNameByName retrieves a name by its display name
func (s *pgStore) GetNameByName(ctx context.Context, displayName string) (*schema.Name, error) {
	var name schema.Name
	err := s.db.WithContext(ctx).Where("name = ?", displayName).First(&name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get name by display name: %w", err)
	}

	return &name, nil
}

// EnsureName gets the name row for a token, creating a placeholder row if
// none exists yet
func (s *pgStore) EnsureName(ctx context.Context, tokenID string) (*schema.Name, error) {
	var name *schema.Name
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		name, txErr = s.ensureName(tx, tokenID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return name, nil
}

// ensureName creates the name row with a placeholder display name if it does
// not exist, then returns the current row. Must run inside a transaction.
func (s *pgStore) ensureName(tx *gorm.DB, tokenID string) (*schema.Name, error) {
	name := schema.Name{
		TokenID:      tokenID,
		Name:         domain.PlaceholderName(tokenID),
		OwnerAddress: domain.ETHEREUM_ZERO_ADDRESS,
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(&name).Error; err != nil {
		return nil, fmt.Errorf("failed to create name: %w", err)
	}

	// If name.ID is 0 the row already existed, so fetch it
	if name.ID == 0 {
		if err := tx.Where("token_id = ?", tokenID).First(&name).Error; err != nil {
			return nil, fmt.Errorf("failed to get existing name: %w", err)
		}
	}

	return &name, nil
}

// RecordRegistration applies a registration event in a single transaction
func (s *pgStore) RecordRegistration(ctx context.Context, input RegistrationInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := s.ensureName(tx, input.TokenID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"owner_address":      input.Owner,
			"registrant_address": input.Owner,
			"expiry_date":        input.Expires,
			"registration_date":  input.Timestamp,
		}
		if err := tx.Model(&schema.Name{}).Where("id = ?", name.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update registered name: %w", err)
		}

		txn := schema.Transaction{
			NameID:      name.ID,
			TxHash:      input.TxHash,
			EventType:   schema.TransactionTypeRegistration,
			ToAddress:   &input.Owner,
			BlockNumber: input.BlockNumber,
			Timestamp:   input.Timestamp,
		}
		if err := createTransaction(tx, &txn); err != nil {
			return err
		}

		activity := schema.Activity{
			NameID:       name.ID,
			Kind:         schema.ActivityKindMint,
			ActorAddress: input.Owner,
			RefHash:      input.TxHash,
			Timestamp:    input.Timestamp,
		}
		return createActivity(tx, &activity)
	})
}

// RecordRenewal applies a renewal event to an existing name
func (s *pgStore) RecordRenewal(ctx context.Context, input RenewalInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := s.ensureName(tx, input.TokenID)
		if err != nil {
			return err
		}

		if err := tx.Model(&schema.Name{}).Where("id = ?", name.ID).
			Update("expiry_date", input.Expires).Error; err != nil {
			return fmt.Errorf("failed to update expiry: %w", err)
		}

		txn := schema.Transaction{
			NameID:      name.ID,
			TxHash:      input.TxHash,
			EventType:   schema.TransactionTypeRenewal,
			BlockNumber: input.BlockNumber,
			Timestamp:   input.Timestamp,
		}
		return createTransaction(tx, &txn)
	})
}

// RecordTransfer applies an ownership transfer in a single transaction
func (s *pgStore) RecordTransfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	var result TransferResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := s.ensureName(tx, input.TokenID)
		if err != nil {
			return err
		}
		result.PreviousOwner = name.OwnerAddress

		updates := map[string]interface{}{
			"owner_address":    input.ToAddress,
			"last_transfer_at": input.Timestamp,
		}
		if err := tx.Model(&schema.Name{}).Where("id = ?", name.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update owner: %w", err)
		}
		name.OwnerAddress = input.ToAddress
		result.Name = name

		txn := schema.Transaction{
			NameID:      name.ID,
			TxHash:      input.TxHash,
			EventType:   schema.TransactionTypeTransfer,
			FromAddress: &input.FromAddress,
			ToAddress:   &input.ToAddress,
			BlockNumber: input.BlockNumber,
			Timestamp:   input.Timestamp,
		}
		if err := createTransaction(tx, &txn); err != nil {
			return err
		}

		kind := schema.ActivityKindTransfer
		if input.FromAddress == domain.ETHEREUM_ZERO_ADDRESS {
			kind = schema.ActivityKindMint
		}
		activity := schema.Activity{
			NameID:       name.ID,
			Kind:         kind,
			ActorAddress: input.ToAddress,
			RefHash:      input.TxHash,
			Timestamp:    input.Timestamp,
		}
		return createActivity(tx, &activity)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// RecordTransferTransaction appends the transaction and activity rows for a
// transfer reported off-chain. The owner column is left alone; ownership is
// reconciled from confirmed chain logs only.
func (s *pgStore) RecordTransferTransaction(ctx context.Context, input StreamTransferInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn := schema.Transaction{
			NameID:      input.NameID,
			TxHash:      input.TxHash,
			EventType:   schema.TransactionTypeTransfer,
			FromAddress: &input.FromAddress,
			ToAddress:   &input.ToAddress,
			Timestamp:   input.Timestamp,
		}
		if err := createTransaction(tx, &txn); err != nil {
			return err
		}

		activity := schema.Activity{
			NameID:       input.NameID,
			Kind:         schema.ActivityKindTransfer,
			ActorAddress: input.ToAddress,
			RefHash:      input.TxHash,
			Timestamp:    input.Timestamp,
		}
		return createActivity(tx, &activity)
	})
}

// UpdateOwner sets the current owner of a name
func (s *pgStore) UpdateOwner(ctx context.Context, nameID uint64, owner string, at time.Time) error {
	updates := map[string]interface{}{
		"owner_address":    owner,
		"last_transfer_at": at,
	}
	if err := s.db.WithContext(ctx).Model(&schema.Name{}).
		Where("id = ?", nameID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update owner: %w", err)
	}

	return nil
}

// EnrichName writes resolver-sourced profile fields onto a name row. Empty
// fields are left untouched so partial subgraph data never clears columns.
func (s *pgStore) EnrichName(ctx context.Context, tokenID string, input EnrichNameInput) error {
	updates := map[string]interface{}{}
	if input.Registrant != "" {
		updates["registrant_address"] = input.Registrant
	}
	if input.RegistrationDate != nil {
		updates["registration_date"] = input.RegistrationDate
	}
	if len(input.TextRecordKeys) > 0 {
		keys, err := json.Marshal(input.TextRecordKeys)
		if err != nil {
			return fmt.Errorf("failed to encode text record keys: %w", err)
		}
		updates["text_records"] = datatypes.JSON(keys)
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&schema.Name{}).
		Where("token_id = ?", tokenID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to enrich name: %w", err)
	}

	return nil
}

// SetResolvedName replaces a placeholder display name with the resolved one
func (s *pgStore) SetResolvedName(ctx context.Context, tokenID string, name string) error {
	res := s.db.WithContext(ctx).Model(&schema.Name{}).
		Where("token_id = ?", tokenID).
		Update("name", name)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to set resolved name: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNameNotFound
	}

	return nil
}

// MergeNames folds a duplicate row into the survivor. The survivor keeps its
// display name and adopts the duplicate's on-chain state, since the duplicate
// was written from chain events and carries the current token id and owner.
func (s *pgStore) MergeNames(ctx context.Context, survivorID uint64, duplicateID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var duplicate schema.Name
		if err := tx.Where("id = ?", duplicateID).First(&duplicate).Error; err != nil {
			return fmt.Errorf("failed to get duplicate name: %w", err)
		}

		repoint := []struct {
			model interface{}
			label string
		}{
			{&schema.Transaction{}, "transactions"},
			{&schema.Activity{}, "activities"},
			{&schema.Listing{}, "listings"},
			{&schema.Offer{}, "offers"},
			{&schema.Sale{}, "sales"},
		}
		for _, r := range repoint {
			if err := tx.Model(r.model).Where("name_id = ?", duplicateID).
				Update("name_id", survivorID).Error; err != nil {
				return fmt.Errorf("failed to re-point %s: %w", r.label, err)
			}
		}

		if err := tx.Where("id = ?", duplicateID).Delete(&schema.Name{}).Error; err != nil {
			return fmt.Errorf("failed to delete duplicate name: %w", err)
		}

		updates := map[string]interface{}{
			"token_id":      duplicate.TokenID,
			"owner_address": duplicate.OwnerAddress,
		}
		if duplicate.LastTransferAt != nil {
			updates["last_transfer_at"] = duplicate.LastTransferAt
		}
		if duplicate.ExpiryDate != nil {
			updates["expiry_date"] = duplicate.ExpiryDate
		}
		if err := tx.Model(&schema.Name{}).Where("id = ?", survivorID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update survivor name: %w", err)
		}

		return nil
	})
}

// UpsertListing creates or refreshes a listing and cancels the seller's other
// active listings for the same name and source
func (s *pgStore) UpsertListing(ctx context.Context, input ListingInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A newer listing supersedes the seller's previous active ones
		if err := tx.Model(&schema.Listing{}).
			Where("name_id = ? AND seller_address = ? AND source = ? AND status = ? AND order_hash <> ?",
				input.NameID, input.SellerAddress, string(input.Source), schema.ListingStatusActive, input.OrderHash).
			Update("status", schema.ListingStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to supersede listings: %w", err)
		}

		listing := schema.Listing{
			NameID:        input.NameID,
			OrderHash:     input.OrderHash,
			Source:        string(input.Source),
			SellerAddress: input.SellerAddress,
			Price:         input.Price,
			Currency:      input.Currency,
			Status:        schema.ListingStatusActive,
			ExpiresAt:     input.ExpiresAt,
			ListedAt:      input.ListedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_hash"}, {Name: "source"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "currency", "expires_at", "listed_at", "updated_at"}),
		}).Create(&listing).Error; err != nil {
			return fmt.Errorf("failed to upsert listing: %w", err)
		}

		return nil
	})
}

// GetListingByOrderHash retrieves a listing by order hash and source
func (s *pgStore) GetListingByOrderHash(ctx context.Context, orderHash string, source domain.Source) (*schema.Listing, error) {
	var listing schema.Listing
	err := s.db.WithContext(ctx).
		Where("order_hash = ? AND source = ?", orderHash, string(source)).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &listing, nil
}

// MarkListingCancelled transitions a listing to cancelled
func (s *pgStore) MarkListingCancelled(ctx context.Context, orderHash string, source domain.Source) error {
	res := s.db.WithContext(ctx).Model(&schema.Listing{}).
		Where("order_hash = ? AND source = ? AND status = ?", orderHash, string(source), schema.ListingStatusActive).
		Update("status", schema.ListingStatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrListingNotFound
	}

	return nil
}

// CreateOffer records a buy offer
func (s *pgStore) CreateOffer(ctx context.Context, input OfferInput) (bool, error) {
	offer := schema.Offer{
		NameID:       input.NameID,
		OrderHash:    input.OrderHash,
		BuyerAddress: input.BuyerAddress,
		Price:        input.Price,
		Currency:     input.Currency,
		Status:       schema.OfferStatusPending,
		Source:       string(input.Source),
		ExpiresAt:    input.ExpiresAt,
		OfferedAt:    input.OfferedAt,
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_hash"}},
			DoNothing: true,
		}).Clauses(clause.Returning{Columns: []clause.Column{}}).
			Create(&offer).Error; err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}

		// ID == 0 means the order hash was already recorded
		if offer.ID == 0 {
			return nil
		}
		created = true

		activity := schema.Activity{
			NameID:       input.NameID,
			Kind:         schema.ActivityKindOffer,
			ActorAddress: input.BuyerAddress,
			RefHash:      input.OrderHash,
			Timestamp:    input.OfferedAt,
		}
		return createActivity(tx, &activity)
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// RecordSale records a completed purchase in a single transaction
func (s *pgStore) RecordSale(ctx context.Context, input SaleInput) (bool, error) {
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale := schema.Sale{
			NameID:        input.NameID,
			OrderHash:     input.OrderHash,
			SellerAddress: input.SellerAddress,
			BuyerAddress:  input.BuyerAddress,
			Price:         input.Price,
			Currency:      input.Currency,
			Fees:          input.Fees,
			Source:        string(input.Source),
			TxHash:        input.TxHash,
			SoldAt:        input.Timestamp,
		}

		// Close the matching listing, preferring the one from the same source
		var listing schema.Listing
		found := true
		if err := tx.Where("order_hash = ? AND source = ?", input.OrderHash, string(input.Source)).
			First(&listing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up listing: %w", err)
			}
			if err := tx.Where("order_hash = ?", input.OrderHash).First(&listing).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to look up listing: %w", err)
				}
				found = false
			}
		}
		if found {
			sale.ListingID = &listing.ID
			if err := tx.Model(&schema.Listing{}).Where("id = ?", listing.ID).
				Update("status", schema.ListingStatusSold).Error; err != nil {
				return fmt.Errorf("failed to mark listing sold: %w", err)
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_hash"}},
			DoNothing: true,
		}).Clauses(clause.Returning{Columns: []clause.Column{}}).
			Create(&sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		// ID == 0 means this fill was already recorded by the other producer
		if sale.ID == 0 {
			return nil
		}
		created = true

		price := input.Price
		txn := schema.Transaction{
			NameID:      input.NameID,
			TxHash:      input.TxHash,
			EventType:   schema.TransactionTypeSale,
			FromAddress: &input.SellerAddress,
			ToAddress:   &input.BuyerAddress,
			Price:       &price,
			BlockNumber: input.BlockNumber,
			Timestamp:   input.Timestamp,
		}
		if err := createTransaction(tx, &txn); err != nil {
			return err
		}

		activity := schema.Activity{
			NameID:       input.NameID,
			Kind:         schema.ActivityKindSale,
			ActorAddress: input.BuyerAddress,
			RefHash:      input.OrderHash,
			Timestamp:    input.Timestamp,
		}
		return createActivity(tx, &activity)
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// createTransaction appends a transaction row, skipping tx hash replays
func createTransaction(tx *gorm.DB, txn *schema.Transaction) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// createActivity appends an activity row, skipping (ref_hash, kind) replays
func createActivity(tx *gorm.DB, activity *schema.Activity) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ref_hash"}, {Name: "kind"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}
