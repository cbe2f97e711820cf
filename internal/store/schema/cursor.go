package schema

import "time"

// Cursor stores the last fully processed block per monitored contract.
// A scanner resumes from BlockNumber+1 after a restart.
type Cursor struct {
	ContractAddress string    `gorm:"column:contract_address;primaryKey;type:text"`
	BlockNumber     uint64    `gorm:"column:block_number;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Cursor model
func (Cursor) TableName() string {
	return "cursors"
}
