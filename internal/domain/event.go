package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Registry event types, one per state transition.
const (
	EventCreated   = "CREATED"
	EventListed    = "LISTED"
	EventCancelled = "CANCELLED"
	EventSold      = "SOLD"
)

// RegistryEvent is the audit trail: one row per record state transition.
type RegistryEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	RecordID  uuid.UUID      `gorm:"column:record_id;type:uuid;not null;index" json:"record_id"`
	EventType string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EventData datatypes.JSON `gorm:"column:event_data;type:json" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (RegistryEvent) TableName() string {
	return "RegistryEvents"
}

func (e *RegistryEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
