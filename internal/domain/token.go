package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenAccount holds units of one ownership token for one identity. For
// registry tokens the balance is 0 or 1: the holder of the single unit is
// the record's title-holder.
type TokenAccount struct {
	AccountID uuid.UUID  `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index:idx_token_owner,unique" json:"owner_id"`
	TokenID   uuid.UUID  `gorm:"column:token_id;type:uuid;not null;index:idx_token_owner,unique" json:"token_id"`
	Balance   uint64     `gorm:"column:balance;not null;default:0" json:"balance"`
	Frozen    bool       `gorm:"column:frozen;not null;default:false" json:"frozen"`
	Delegate  *uuid.UUID `gorm:"column:delegate;type:uuid" json:"delegate"`
	CreatedAt time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (TokenAccount) TableName() string {
	return "TokenAccounts"
}

func (t *TokenAccount) BeforeCreate(tx *gorm.DB) error {
	if t.AccountID == uuid.Nil {
		t.AccountID = uuid.New()
	}
	return nil
}
