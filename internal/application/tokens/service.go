package tokens

import (
	"context"
	"errors"

	"deedbook-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTokenAccountNotFound = errors.New("Token account not found")
	ErrAccountFrozen        = errors.New("Token account is frozen")
	ErrAccountDelegated     = errors.New("Token account is delegated to a third party")
	ErrNotTokenAuthority    = errors.New("Authority does not control the token account")
	ErrNoTokenBalance       = errors.New("Token account has no balance")
)

// Service manages ownership-token accounts. Holdings mutation happens only
// through TransferOne and Mint.
type Service struct {
	DB *gorm.DB
}

// Mint creates a fresh ownership token held by ownerID with a balance of
// one unit. The returned account's token_id is what CreateRecord binds.
func (s *Service) Mint(ctx context.Context, ownerID uuid.UUID) (*domain.TokenAccount, error) {
	acct := &domain.TokenAccount{
		OwnerID: ownerID,
		TokenID: uuid.New(),
		Balance: 1,
	}
	if err := s.DB.WithContext(ctx).Create(acct).Error; err != nil {
		return nil, err
	}
	return acct, nil
}

// Holdings returns every token account of the owner.
func (s *Service) Holdings(ctx context.Context, ownerID uuid.UUID) ([]domain.TokenAccount, error) {
	var accts []domain.TokenAccount
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order(`"createdAt" DESC`).Find(&accts).Error; err != nil {
		return nil, err
	}
	return accts, nil
}

// Freeze marks the owner's account for a token as frozen; a frozen account
// rejects transfers until unfrozen.
func (s *Service) Freeze(ctx context.Context, ownerID, tokenID uuid.UUID, frozen bool) error {
	var acct domain.TokenAccount
	if err := s.DB.WithContext(ctx).Where("owner_id = ? AND token_id = ?", ownerID, tokenID).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrTokenAccountNotFound
		}
		return err
	}
	return s.DB.WithContext(ctx).Model(&acct).Update("frozen", frozen).Error
}

// TransferOne moves exactly one unit of tokenID from `from` to `to`, on the
// caller's open transaction. authority must control the source account, and
// the source must be unfrozen, undelegated, and funded.
func TransferOne(tx *gorm.DB, tokenID, from, to, authority uuid.UUID) error {
	var source domain.TokenAccount
	if err := tx.Where("owner_id = ? AND token_id = ?", from, tokenID).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrTokenAccountNotFound
		}
		return err
	}
	if source.Frozen {
		return ErrAccountFrozen
	}
	if source.Delegate != nil && *source.Delegate != authority {
		return ErrAccountDelegated
	}
	if source.OwnerID != authority {
		return ErrNotTokenAuthority
	}
	if source.Balance < 1 {
		return ErrNoTokenBalance
	}

	source.Balance -= 1
	if err := tx.Save(&source).Error; err != nil {
		return err
	}

	var dest domain.TokenAccount
	err := tx.Where("owner_id = ? AND token_id = ?", to, tokenID).First(&dest).Error
	if err == gorm.ErrRecordNotFound {
		dest = domain.TokenAccount{OwnerID: to, TokenID: tokenID, Balance: 1}
		return tx.Create(&dest).Error
	} else if err != nil {
		return err
	}
	if dest.Frozen {
		return ErrAccountFrozen
	}
	dest.Balance += 1
	return tx.Save(&dest).Error
}
