package ledger

import (
	"context"
	"testing"

	"deedbook-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PaymentAccount{}))
	return &Service{DB: db}, db
}

func TestBalance_UnknownOwnerIsZero(t *testing.T) {
	svc, _ := setupLedger(t)
	acct, err := svc.Balance(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acct.Balance)
}

func TestDeposit(t *testing.T) {
	svc, _ := setupLedger(t)
	owner := uuid.New()

	_, err := svc.Deposit(context.Background(), owner, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	acct, err := svc.Deposit(context.Background(), owner, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), acct.Balance)

	acct, err = svc.Deposit(context.Background(), owner, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), acct.Balance)
}

func TestTransfer(t *testing.T) {
	svc, db := setupLedger(t)
	from := uuid.New()
	to := uuid.New()
	_, err := svc.Deposit(context.Background(), from, 800)
	require.NoError(t, err)

	assert.ErrorIs(t, Transfer(db, from, to, 0), ErrInvalidAmount)
	assert.ErrorIs(t, Transfer(db, uuid.New(), to, 100), ErrAccountNotFound)
	assert.ErrorIs(t, Transfer(db, from, to, 801), ErrInsufficientBalance)

	require.NoError(t, Transfer(db, from, to, 300))

	sender, err := svc.Balance(context.Background(), from)
	require.NoError(t, err)
	receiver, err := svc.Balance(context.Background(), to)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), sender.Balance)
	assert.Equal(t, uint64(300), receiver.Balance)
}

func TestTransfer_RollsBackWithEnclosingTransaction(t *testing.T) {
	svc, db := setupLedger(t)
	from := uuid.New()
	to := uuid.New()
	_, err := svc.Deposit(context.Background(), from, 800)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := Transfer(tx, from, to, 300); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	sender, err := svc.Balance(context.Background(), from)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), sender.Balance)
	receiver, err := svc.Balance(context.Background(), to)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), receiver.Balance)
}
