package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleTransaction records one completed purchase: the price actually paid and
// both parties. One row per purchase, append-only.
type SaleTransaction struct {
	TxID      uuid.UUID `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	RecordID  uuid.UUID `gorm:"column:record_id;type:uuid;not null;index" json:"record_id"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null" json:"seller_id"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null" json:"buyer_id"`
	Price     uint64    `gorm:"column:price;not null" json:"price"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SaleTransaction) TableName() string {
	return "SaleTransactions"
}

func (t *SaleTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
