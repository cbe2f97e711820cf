package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies on-chain transaction records
type TransactionType string

const (
	TransactionTypeRegistration TransactionType = "registration"
	TransactionTypeRenewal      TransactionType = "renewal"
	TransactionTypeTransfer     TransactionType = "transfer"
	TransactionTypeSale         TransactionType = "sale"
)

// Transaction is the append-only log of on-chain activity for a name.
// Rows are keyed by transaction hash; replays are rejected by the unique
// index, never by the caller.
type Transaction struct {
	ID          uint64           `gorm:"column:id;primaryKey;autoIncrement"`
	NameID      uint64           `gorm:"column:name_id;not null;index"`
	TxHash      string           `gorm:"column:tx_hash;not null;uniqueIndex;type:text"`
	EventType   TransactionType  `gorm:"column:event_type;not null;type:text"`
	FromAddress *string          `gorm:"column:from_address;type:text"`
	ToAddress   *string          `gorm:"column:to_address;type:text"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(78,0)"`
	BlockNumber uint64           `gorm:"column:block_number;not null"`
	Timestamp   time.Time        `gorm:"column:timestamp;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
