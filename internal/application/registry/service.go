package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"deedbook-backend/internal/application/ledger"
	"deedbook-backend/internal/application/tokens"
	"deedbook-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service implements the property-record state machine. Every operation runs
// inside one DB transaction; Purchase relies on that boundary for the
// all-or-nothing two-leg swap, so a token-leg failure automatically rolls
// back the payment leg.
type Service struct {
	DB *gorm.DB
	// ReserveMinimum is the balance a buyer must retain beyond the purchase
	// price (RESERVE_MINIMUM env).
	ReserveMinimum uint64
}

// CreateRecord registers a new property owned by ownerID and permanently
// bound to tokenID. The caller must already hold the token, and the token
// must not back another record.
func (s *Service) CreateRecord(ctx context.Context, ownerID, tokenID uuid.UUID, details domain.PropertyDetails) (*domain.PropertyRecord, error) {
	if err := validateDetails(details); err != nil {
		return nil, err
	}
	if tokenID == uuid.Nil {
		return nil, ErrInvalidTokenBinding
	}

	var record *domain.PropertyRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tokenAcct domain.TokenAccount
		if err := tx.Where("owner_id = ? AND token_id = ?", ownerID, tokenID).First(&tokenAcct).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: creator does not hold token", ErrInvalidTokenBinding)
			}
			return err
		}
		if tokenAcct.Balance < 1 {
			return fmt.Errorf("%w: creator does not hold token", ErrInvalidTokenBinding)
		}

		var existing domain.PropertyRecord
		if err := tx.Where("token_id = ?", tokenID).First(&existing).Error; err == nil {
			return fmt.Errorf("%w: token already bound to a record", ErrInvalidTokenBinding)
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		record = &domain.PropertyRecord{
			OwnerID:   ownerID,
			TokenID:   tokenID,
			Details:   details,
			IsListed:  false,
			ListPrice: 0,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		eventData, _ := json.Marshal(map[string]interface{}{
			"token_id":       tokenID.String(),
			"declared_price": details.DeclaredPrice,
		})
		return tx.Create(&domain.RegistryEvent{
			RecordID:  record.RecordID,
			EventType: domain.EventCreated,
			ActorID:   &ownerID,
			EventData: datatypes.JSON(eventData),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecord puts an unlisted record up for sale at price. Owner only.
func (s *Service) ListRecord(ctx context.Context, recordID, callerID uuid.UUID, price uint64) (*domain.PropertyRecord, error) {
	if price == 0 {
		return nil, ErrInvalidPrice
	}
	if price > domain.MaxListingPrice {
		return nil, ErrPriceExceedsLimit
	}

	var record domain.PropertyRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecord(tx, recordID, &record); err != nil {
			return err
		}
		if record.OwnerID != callerID {
			return ErrNotOwner
		}
		if record.IsListed {
			return ErrAlreadyListed
		}

		record.IsListed = true
		record.ListPrice = price
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		eventData, _ := json.Marshal(map[string]interface{}{"list_price": price})
		return tx.Create(&domain.RegistryEvent{
			RecordID:  record.RecordID,
			EventType: domain.EventListed,
			ActorID:   &callerID,
			EventData: datatypes.JSON(eventData),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CancelListing takes a listed record off the market. Owner only.
func (s *Service) CancelListing(ctx context.Context, recordID, callerID uuid.UUID) (*domain.PropertyRecord, error) {
	var record domain.PropertyRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecord(tx, recordID, &record); err != nil {
			return err
		}
		if !record.IsListed {
			return ErrNotListed
		}
		if record.OwnerID != callerID {
			return ErrNotOwner
		}

		cancelled := record.ListPrice
		record.IsListed = false
		record.ListPrice = 0
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		eventData, _ := json.Marshal(map[string]interface{}{"cancelled_price": cancelled})
		return tx.Create(&domain.RegistryEvent{
			RecordID:  record.RecordID,
			EventType: domain.EventCancelled,
			ActorID:   &callerID,
			EventData: datatypes.JSON(eventData),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Purchase executes the atomic swap: payment leg (list price buyer→seller)
// and token leg (one unit of the linked token seller→buyer) inside a single
// transaction. Returns the updated record and the amount paid.
func (s *Service) Purchase(ctx context.Context, recordID, sellerID, buyerID uuid.UUID) (*domain.PropertyRecord, uint64, error) {
	var record domain.PropertyRecord
	var paid uint64

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecord(tx, recordID, &record); err != nil {
			return err
		}
		if !record.IsListed {
			return ErrNotListed
		}
		if record.OwnerID != sellerID {
			return ErrNotOwner
		}
		if buyerID == sellerID {
			return ErrCannotBuyOwnProperty
		}

		if record.ListPrice > math.MaxUint64-s.ReserveMinimum {
			return ErrOverflow
		}
		required := record.ListPrice + s.ReserveMinimum

		var buyerAcct domain.PaymentAccount
		if err := tx.Where("owner_id = ?", buyerID).First(&buyerAcct).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrInsufficientFunds
			}
			return err
		}
		if buyerAcct.Balance < required {
			return ErrInsufficientFunds
		}

		// Price actually paid, captured before any field is cleared.
		paid = record.ListPrice

		if err := ledger.Transfer(tx, buyerID, sellerID, paid); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := tokens.TransferOne(tx, record.TokenID, sellerID, buyerID, sellerID); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		now := time.Now()
		record.OwnerID = buyerID
		record.IsListed = false
		record.ListPrice = 0
		record.LastSalePrice = &paid
		record.LastSaleDate = &now
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		if err := tx.Create(&domain.SaleTransaction{
			RecordID: record.RecordID,
			SellerID: sellerID,
			BuyerID:  buyerID,
			Price:    paid,
		}).Error; err != nil {
			return err
		}

		eventData, _ := json.Marshal(map[string]interface{}{
			"price":     paid,
			"seller_id": sellerID.String(),
			"buyer_id":  buyerID.String(),
		})
		return tx.Create(&domain.RegistryEvent{
			RecordID:  record.RecordID,
			EventType: domain.EventSold,
			ActorID:   &buyerID,
			EventData: datatypes.JSON(eventData),
		}).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &record, paid, nil
}

// GetRecord fetches one record by id.
func (s *Service) GetRecord(ctx context.Context, recordID uuid.UUID) (*domain.PropertyRecord, error) {
	var record domain.PropertyRecord
	if err := findRecord(s.DB.WithContext(ctx), recordID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) GetAllRecords(ctx context.Context) ([]domain.PropertyRecord, error) {
	var records []domain.PropertyRecord
	if err := s.DB.WithContext(ctx).Order(`"createdAt" DESC`).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) GetListedRecords(ctx context.Context) ([]domain.PropertyRecord, error) {
	var records []domain.PropertyRecord
	if err := s.DB.WithContext(ctx).Where("is_listed = ?", true).Order(`"updatedAt" DESC`).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) GetOwnerRecords(ctx context.Context, ownerID uuid.UUID) ([]domain.PropertyRecord, error) {
	var records []domain.PropertyRecord
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order(`"createdAt" DESC`).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func findRecord(tx *gorm.DB, recordID uuid.UUID, out *domain.PropertyRecord) error {
	if err := tx.Where("record_id = ?", recordID).First(out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

func validateDetails(d domain.PropertyDetails) error {
	if d.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidPropertyData)
	}
	if d.City == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidPropertyData)
	}
	if d.Rooms == 0 {
		return fmt.Errorf("%w: rooms must be greater than zero", ErrInvalidPropertyData)
	}
	if d.Bathrooms == 0 {
		return fmt.Errorf("%w: bathrooms must be greater than zero", ErrInvalidPropertyData)
	}
	if d.DeclaredPrice == 0 {
		return fmt.Errorf("%w: declared price must be greater than zero", ErrInvalidPropertyData)
	}
	if d.ImageURL == "" {
		return fmt.Errorf("%w: image_url is required", ErrInvalidPropertyData)
	}
	for field, value := range map[string]string{
		"address":    d.Address,
		"city":       d.City,
		"north_view": d.NorthView,
		"south_view": d.SouthView,
		"east_view":  d.EastView,
		"west_view":  d.WestView,
		"image_url":  d.ImageURL,
	} {
		if len(value) > domain.MaxTextLen {
			return fmt.Errorf("%w: %s", ErrStringTooLong, field)
		}
	}
	return nil
}
