package schema

import (
	"time"

	"gorm.io/datatypes"
)

// RawEventLog is the audit trail of every decoded chain log. The
// (tx_hash, log_index) unique index makes replayed block ranges idempotent.
type RawEventLog struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ContractAddress string         `gorm:"column:contract_address;not null;type:text;index"`
	TxHash          string         `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_raw_event_logs_tx_log,priority:1"`
	LogIndex        uint           `gorm:"column:log_index;not null;uniqueIndex:idx_raw_event_logs_tx_log,priority:2"`
	BlockNumber     uint64         `gorm:"column:block_number;not null;index"`
	EventKind       string         `gorm:"column:event_kind;not null;type:text"`
	Payload         datatypes.JSON `gorm:"column:payload;type:jsonb"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the RawEventLog model
func (RawEventLog) TableName() string {
	return "raw_event_logs"
}
