package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MutationEvent records a settled contract mutation for the activity feed.
// EventData carries action-specific fields (amounts, prices, refresh snapshot).
type MutationEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Action    string         `gorm:"column:action;type:varchar(40);not null;index" json:"action"`
	Target    string         `gorm:"column:target;not null;index" json:"target"`
	Actor     string         `gorm:"column:actor;not null;index" json:"actor"`
	TxHash    *string        `gorm:"column:tx_hash" json:"tx_hash"`
	Status    string         `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Reason    *string        `gorm:"column:reason" json:"reason"`
	EventData datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MutationEvent) TableName() string {
	return "MutationEvents"
}

func (me *MutationEvent) BeforeCreate(tx *gorm.DB) error {
	if me.EventID == uuid.Nil {
		me.EventID = uuid.New()
	}
	return nil
}
