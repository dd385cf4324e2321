package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTextLen bounds every free-text detail field to cap row size.
const MaxTextLen = 200

// MaxListingPrice is the global ceiling for a listing price.
const MaxListingPrice uint64 = 1_000_000_000_000

// PropertyDetails is the immutable business payload of a record, set once at
// creation and never mutated afterwards.
type PropertyDetails struct {
	Address       string `gorm:"column:address;not null" json:"address"`
	City          string `gorm:"column:city;not null" json:"city"`
	Rooms         uint64 `gorm:"column:rooms;not null" json:"rooms"`
	Bathrooms     uint64 `gorm:"column:bathrooms;not null" json:"bathrooms"`
	Kitchens      uint64 `gorm:"column:kitchens;not null" json:"kitchens"`
	DeclaredPrice uint64 `gorm:"column:declared_price;not null" json:"declared_price"`
	NorthView     string `gorm:"column:north_view" json:"north_view"`
	SouthView     string `gorm:"column:south_view" json:"south_view"`
	EastView      string `gorm:"column:east_view" json:"east_view"`
	WestView      string `gorm:"column:west_view" json:"west_view"`
	ImageURL      string `gorm:"column:image_url;not null" json:"image_url"`
}

// PropertyRecord is one registered property. A record is never deleted: it is
// created unlisted, cycles between listed/unlisted, and changes owner only
// through a completed purchase.
type PropertyRecord struct {
	RecordID      uuid.UUID       `gorm:"column:record_id;type:uuid;primaryKey" json:"record_id"`
	OwnerID       uuid.UUID       `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`
	TokenID       uuid.UUID       `gorm:"column:token_id;type:uuid;not null;uniqueIndex" json:"token_id"`
	Details       PropertyDetails `gorm:"embedded" json:"details"`
	IsListed      bool            `gorm:"column:is_listed;not null;default:false" json:"is_listed"`
	ListPrice     uint64          `gorm:"column:list_price;not null;default:0" json:"list_price"`
	LastSalePrice *uint64         `gorm:"column:last_sale_price" json:"last_sale_price"`
	LastSaleDate  *time.Time      `gorm:"column:last_sale_date" json:"last_sale_date"`
	CreatedAt     time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PropertyRecord) TableName() string {
	return "PropertyRecords"
}

// BeforeCreate sets record_id if not already set (DBs without default uuid).
func (p *PropertyRecord) BeforeCreate(tx *gorm.DB) error {
	if p.RecordID == uuid.Nil {
		p.RecordID = uuid.New()
	}
	return nil
}
