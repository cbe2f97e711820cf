package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus tracks a buy offer through its lifecycle
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// Offer represents a buy offer on a name. Offers never touch ownership;
// only transfer events do.
type Offer struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	NameID       uint64          `gorm:"column:name_id;not null;index"`
	OrderHash    string          `gorm:"column:order_hash;not null;type:text;uniqueIndex"`
	BuyerAddress string          `gorm:"column:buyer_address;not null;type:text;index"`
	Price        decimal.Decimal `gorm:"column:price;not null;type:numeric(78,0)"`
	Currency     string          `gorm:"column:currency;not null;type:text"`
	Status       OfferStatus     `gorm:"column:status;not null;type:text;index"`
	Source       string          `gorm:"column:source;not null;type:text"`
	ExpiresAt    *time.Time      `gorm:"column:expires_at"`
	OfferedAt    time.Time       `gorm:"column:offered_at;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}
