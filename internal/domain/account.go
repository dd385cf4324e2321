package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentAccount holds the fungible balance of one identity. Only the ledger
// transfer primitive and deposits may mutate it.
type PaymentAccount struct {
	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;uniqueIndex" json:"owner_id"`
	Balance   uint64    `gorm:"column:balance;not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PaymentAccount) TableName() string {
	return "PaymentAccounts"
}

func (a *PaymentAccount) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
