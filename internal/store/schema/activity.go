package schema

import "time"

// ActivityKind classifies entries in a name's activity feed
type ActivityKind string

const (
	ActivityKindMint     ActivityKind = "mint"
	ActivityKindTransfer ActivityKind = "transfer"
	ActivityKindSale     ActivityKind = "sale"
	ActivityKindListing  ActivityKind = "listing"
	ActivityKindOffer    ActivityKind = "offer"
)

// Activity is the denormalized per-name activity feed consumed by the search
// sync collaborator. RefHash is the transaction hash for on-chain activity
// and the order hash for marketplace activity; together with Kind it forms
// the replay dedupe key.
type Activity struct {
	ID           uint64       `gorm:"column:id;primaryKey;autoIncrement"`
	NameID       uint64       `gorm:"column:name_id;not null;index"`
	Kind         ActivityKind `gorm:"column:kind;not null;type:text;uniqueIndex:idx_activities_ref_kind,priority:2"`
	ActorAddress string       `gorm:"column:actor_address;not null;type:text"`
	RefHash      string       `gorm:"column:ref_hash;not null;type:text;uniqueIndex:idx_activities_ref_kind,priority:1"`
	Timestamp    time.Time    `gorm:"column:timestamp;not null"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Activity model
func (Activity) TableName() string {
	return "activities"
}
