package ledger

import (
	"context"
	"errors"

	"deedbook-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("Payment account not found")
	ErrInsufficientBalance = errors.New("Insufficient payment balance")
	ErrInvalidAmount       = errors.New("Invalid amount")
)

// Service manages payment accounts. Balance mutation happens only through
// Transfer and Deposit.
type Service struct {
	DB *gorm.DB
}

// Balance returns the account for owner, or a zero-balance view if the owner
// has never received funds.
func (s *Service) Balance(ctx context.Context, ownerID uuid.UUID) (*domain.PaymentAccount, error) {
	var acct domain.PaymentAccount
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &domain.PaymentAccount{OwnerID: ownerID, Balance: 0}, nil
		}
		return nil, err
	}
	return &acct, nil
}

// Deposit credits amount to the owner's account, creating it on first use.
func (s *Service) Deposit(ctx context.Context, ownerID uuid.UUID, amount uint64) (*domain.PaymentAccount, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	var acct domain.PaymentAccount
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return credit(tx, ownerID, amount, &acct)
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Transfer debits amount from `from` and credits `to`, on the caller's open
// transaction so a later failure in the enclosing operation reverts it.
func Transfer(tx *gorm.DB, from, to uuid.UUID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	var sender domain.PaymentAccount
	if err := tx.Where("owner_id = ?", from).First(&sender).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrAccountNotFound
		}
		return err
	}
	if sender.Balance < amount {
		return ErrInsufficientBalance
	}

	sender.Balance -= amount
	if err := tx.Save(&sender).Error; err != nil {
		return err
	}

	var receiver domain.PaymentAccount
	return credit(tx, to, amount, &receiver)
}

// credit adds amount to the owner's account, creating it when missing.
func credit(tx *gorm.DB, ownerID uuid.UUID, amount uint64, out *domain.PaymentAccount) error {
	err := tx.Where("owner_id = ?", ownerID).First(out).Error
	if err == gorm.ErrRecordNotFound {
		*out = domain.PaymentAccount{OwnerID: ownerID, Balance: amount}
		return tx.Create(out).Error
	} else if err != nil {
		return err
	}
	out.Balance += amount
	return tx.Save(out).Error
}
