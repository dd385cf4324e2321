package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deposit records one Stripe-funded top-up of a payment account. The unique
// index on the payment intent id makes webhook processing idempotent.
type Deposit struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string         `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	StripeEventID         string         `gorm:"column:stripe_event_id;uniqueIndex;not null" json:"stripe_event_id"`
	OwnerID               uuid.UUID      `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`
	Amount                uint64         `gorm:"column:amount;not null" json:"amount"`
	Currency              string         `gorm:"column:currency;not null" json:"currency"`
	Status                string         `gorm:"column:status;not null" json:"status"`
	RawPaymentIntent      datatypes.JSON `gorm:"column:raw_payment_intent;type:jsonb;not null" json:"raw_payment_intent"`
	CreatedAt             time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt             time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Deposit) TableName() string {
	return "Deposits"
}

func (d *Deposit) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
