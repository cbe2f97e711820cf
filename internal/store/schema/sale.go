package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records a completed purchase. OrderHash is globally unique so the
// chain scanner and the stream client cannot double-record the same fill.
type Sale struct {
	ID            uint64           `gorm:"column:id;primaryKey;autoIncrement"`
	NameID        uint64           `gorm:"column:name_id;not null;index"`
	ListingID     *uint64          `gorm:"column:listing_id;index"`
	OrderHash     string           `gorm:"column:order_hash;not null;type:text;uniqueIndex"`
	SellerAddress string           `gorm:"column:seller_address;not null;type:text"`
	BuyerAddress  string           `gorm:"column:buyer_address;not null;type:text"`
	Price         decimal.Decimal  `gorm:"column:price;not null;type:numeric(78,0)"`
	Currency      string           `gorm:"column:currency;not null;type:text"`
	Fees          *decimal.Decimal `gorm:"column:fees;type:numeric(78,0)"`
	Source        string           `gorm:"column:source;not null;type:text"`
	TxHash        string           `gorm:"column:tx_hash;not null;type:text;index"`
	SoldAt        time.Time        `gorm:"column:sold_at;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}
