package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Name represents the names table - one row per tokenized domain name.
// TokenID and Name are both unique; Name may hold a synthetic placeholder
// ("token-<id>") until the real name is resolved.
type Name struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID is the registry token identifier as a decimal string (uint256)
	TokenID string `gorm:"column:token_id;not null;uniqueIndex;type:text"`
	// Name is the display name; placeholder until resolution succeeds
	Name string `gorm:"column:name;not null;uniqueIndex;type:text"`
	// OwnerAddress is the current owner's address
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;index"`
	// RegistrantAddress is the address that registered the name
	RegistrantAddress *string `gorm:"column:registrant_address;type:text"`
	// ExpiryDate is when the registration lapses
	ExpiryDate *time.Time `gorm:"column:expiry_date"`
	// RegistrationDate is when the name was first registered
	RegistrationDate *time.Time `gorm:"column:registration_date"`
	// TextRecords holds free-form resolver text records
	TextRecords datatypes.JSON `gorm:"column:text_records;type:jsonb"`
	// LastTransferAt records the most recent ownership change
	LastTransferAt *time.Time `gorm:"column:last_transfer_at"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Transactions []Transaction `gorm:"foreignKey:NameID;constraint:OnDelete:CASCADE"`
	Listings     []Listing     `gorm:"foreignKey:NameID;constraint:OnDelete:CASCADE"`
	Offers       []Offer       `gorm:"foreignKey:NameID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Name model
func (Name) TableName() string {
	return "names"
}
