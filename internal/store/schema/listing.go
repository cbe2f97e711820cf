package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus tracks a listing through its lifecycle
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusExpired   ListingStatus = "expired"
)

// Listing represents a sell order for a name. The same order hash may be
// reported by both the chain scanner and the marketplace stream, so
// uniqueness is scoped per source.
type Listing struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	NameID        uint64          `gorm:"column:name_id;not null;index"`
	OrderHash     string          `gorm:"column:order_hash;not null;type:text;uniqueIndex:idx_listings_order_source,priority:1"`
	Source        string          `gorm:"column:source;not null;type:text;uniqueIndex:idx_listings_order_source,priority:2"`
	SellerAddress string          `gorm:"column:seller_address;not null;type:text;index"`
	Price         decimal.Decimal `gorm:"column:price;not null;type:numeric(78,0)"`
	Currency      string          `gorm:"column:currency;not null;type:text"`
	Status        ListingStatus   `gorm:"column:status;not null;type:text;index"`
	ExpiresAt     *time.Time      `gorm:"column:expires_at"`
	ListedAt      time.Time       `gorm:"column:listed_at;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
