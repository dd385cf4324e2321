package registry

import (
	"context"
	"math"
	"strings"
	"testing"

	"deedbook-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRegistry(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.PropertyRecord{},
		&domain.PaymentAccount{},
		&domain.TokenAccount{},
		&domain.SaleTransaction{},
		&domain.RegistryEvent{},
	))
	return &Service{DB: db, ReserveMinimum: 100}, db
}

func mintToken(t *testing.T, db *gorm.DB, owner uuid.UUID) uuid.UUID {
	acct := domain.TokenAccount{OwnerID: owner, TokenID: uuid.New(), Balance: 1}
	require.NoError(t, db.Create(&acct).Error)
	return acct.TokenID
}

func fundAccount(t *testing.T, db *gorm.DB, owner uuid.UUID, balance uint64) {
	require.NoError(t, db.Create(&domain.PaymentAccount{OwnerID: owner, Balance: balance}).Error)
}

func validDetails() domain.PropertyDetails {
	return domain.PropertyDetails{
		Address:       "27 Alameda Santos",
		City:          "Porto",
		Rooms:         3,
		Bathrooms:     2,
		Kitchens:      1,
		DeclaredPrice: 250000,
		NorthView:     "park",
		SouthView:     "street",
		EastView:      "courtyard",
		WestView:      "river",
		ImageURL:      "https://img.deedbook.app/27-alameda.jpg",
	}
}

func countEvents(t *testing.T, db *gorm.DB, recordID uuid.UUID, eventType string) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.RegistryEvent{}).
		Where("record_id = ? AND event_type = ?", recordID, eventType).Count(&n).Error)
	return n
}

func TestCreateRecord_Success(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()
	tokenID := mintToken(t, db, owner)

	record, err := svc.CreateRecord(context.Background(), owner, tokenID, validDetails())
	require.NoError(t, err)
	assert.Equal(t, owner, record.OwnerID)
	assert.Equal(t, tokenID, record.TokenID)
	assert.False(t, record.IsListed)
	assert.Equal(t, uint64(0), record.ListPrice)
	assert.Nil(t, record.LastSalePrice)
	assert.Equal(t, "Porto", record.Details.City)
	assert.Equal(t, int64(1), countEvents(t, db, record.RecordID, domain.EventCreated))
}

func TestCreateRecord_Validation(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()
	tokenID := mintToken(t, db, owner)

	cases := []struct {
		name   string
		mutate func(*domain.PropertyDetails)
		want   error
	}{
		{"missing address", func(d *domain.PropertyDetails) { d.Address = "" }, ErrInvalidPropertyData},
		{"missing city", func(d *domain.PropertyDetails) { d.City = "" }, ErrInvalidPropertyData},
		{"zero rooms", func(d *domain.PropertyDetails) { d.Rooms = 0 }, ErrInvalidPropertyData},
		{"zero bathrooms", func(d *domain.PropertyDetails) { d.Bathrooms = 0 }, ErrInvalidPropertyData},
		{"zero declared price", func(d *domain.PropertyDetails) { d.DeclaredPrice = 0 }, ErrInvalidPropertyData},
		{"missing image url", func(d *domain.PropertyDetails) { d.ImageURL = "" }, ErrInvalidPropertyData},
		{"address too long", func(d *domain.PropertyDetails) { d.Address = strings.Repeat("a", domain.MaxTextLen+1) }, ErrStringTooLong},
		{"view too long", func(d *domain.PropertyDetails) { d.WestView = strings.Repeat("v", domain.MaxTextLen+1) }, ErrStringTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDetails()
			tc.mutate(&d)
			_, err := svc.CreateRecord(context.Background(), owner, tokenID, d)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var n int64
	require.NoError(t, db.Model(&domain.PropertyRecord{}).Count(&n).Error)
	assert.Equal(t, int64(0), n, "no record should be created on validation failure")
}

func TestCreateRecord_TokenBinding(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()

	_, err := svc.CreateRecord(context.Background(), owner, uuid.Nil, validDetails())
	assert.ErrorIs(t, err, ErrInvalidTokenBinding)

	// Caller does not hold the token
	_, err = svc.CreateRecord(context.Background(), owner, uuid.New(), validDetails())
	assert.ErrorIs(t, err, ErrInvalidTokenBinding)

	// Token already bound to another record
	tokenID := mintToken(t, db, owner)
	_, err = svc.CreateRecord(context.Background(), owner, tokenID, validDetails())
	require.NoError(t, err)
	_, err = svc.CreateRecord(context.Background(), owner, tokenID, validDetails())
	assert.ErrorIs(t, err, ErrInvalidTokenBinding)
}

func TestListRecord(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()
	stranger := uuid.New()
	record, err := svc.CreateRecord(context.Background(), owner, mintToken(t, db, owner), validDetails())
	require.NoError(t, err)

	_, err = svc.ListRecord(context.Background(), record.RecordID, owner, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.ListRecord(context.Background(), record.RecordID, owner, domain.MaxListingPrice+1)
	assert.ErrorIs(t, err, ErrPriceExceedsLimit)

	_, err = svc.ListRecord(context.Background(), record.RecordID, stranger, 500)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.ListRecord(context.Background(), uuid.New(), owner, 500)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	listed, err := svc.ListRecord(context.Background(), record.RecordID, owner, 500)
	require.NoError(t, err)
	assert.True(t, listed.IsListed)
	assert.Equal(t, uint64(500), listed.ListPrice)
	assert.Equal(t, int64(1), countEvents(t, db, record.RecordID, domain.EventListed))

	_, err = svc.ListRecord(context.Background(), record.RecordID, owner, 600)
	assert.ErrorIs(t, err, ErrAlreadyListed)

	// Double-list must not change the stored price
	got, err := svc.GetRecord(context.Background(), record.RecordID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.ListPrice)
}

func TestCancelListing(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()
	stranger := uuid.New()
	record, err := svc.CreateRecord(context.Background(), owner, mintToken(t, db, owner), validDetails())
	require.NoError(t, err)

	// Cancelling an unlisted record fails before the owner check
	_, err = svc.CancelListing(context.Background(), record.RecordID, stranger)
	assert.ErrorIs(t, err, ErrNotListed)
	_, err = svc.CancelListing(context.Background(), record.RecordID, owner)
	assert.ErrorIs(t, err, ErrNotListed)

	_, err = svc.ListRecord(context.Background(), record.RecordID, owner, 500)
	require.NoError(t, err)

	_, err = svc.CancelListing(context.Background(), record.RecordID, stranger)
	assert.ErrorIs(t, err, ErrNotOwner)
	still, err := svc.GetRecord(context.Background(), record.RecordID)
	require.NoError(t, err)
	assert.True(t, still.IsListed, "failed cancel must not unlist")

	cancelled, err := svc.CancelListing(context.Background(), record.RecordID, owner)
	require.NoError(t, err)
	assert.False(t, cancelled.IsListed)
	assert.Equal(t, uint64(0), cancelled.ListPrice)
	assert.Equal(t, owner, cancelled.OwnerID)
	assert.Nil(t, cancelled.LastSalePrice)
	assert.Equal(t, int64(1), countEvents(t, db, record.RecordID, domain.EventCancelled))
}

func TestPurchase_Success(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	tokenID := mintToken(t, db, seller)
	fundAccount(t, db, buyer, 1000)

	record, err := svc.CreateRecord(context.Background(), seller, tokenID, validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	sold, paid, err := svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), paid)
	assert.Equal(t, buyer, sold.OwnerID)
	assert.False(t, sold.IsListed)
	assert.Equal(t, uint64(0), sold.ListPrice)
	require.NotNil(t, sold.LastSalePrice)
	assert.Equal(t, uint64(500), *sold.LastSalePrice)
	assert.NotNil(t, sold.LastSaleDate)

	var buyerAcct, sellerAcct domain.PaymentAccount
	require.NoError(t, db.Where("owner_id = ?", buyer).First(&buyerAcct).Error)
	require.NoError(t, db.Where("owner_id = ?", seller).First(&sellerAcct).Error)
	assert.Equal(t, uint64(500), buyerAcct.Balance)
	assert.Equal(t, uint64(500), sellerAcct.Balance)

	var buyerToken, sellerToken domain.TokenAccount
	require.NoError(t, db.Where("owner_id = ? AND token_id = ?", buyer, tokenID).First(&buyerToken).Error)
	require.NoError(t, db.Where("owner_id = ? AND token_id = ?", seller, tokenID).First(&sellerToken).Error)
	assert.Equal(t, uint64(1), buyerToken.Balance)
	assert.Equal(t, uint64(0), sellerToken.Balance)

	var sale domain.SaleTransaction
	require.NoError(t, db.Where("record_id = ?", record.RecordID).First(&sale).Error)
	assert.Equal(t, seller, sale.SellerID)
	assert.Equal(t, buyer, sale.BuyerID)
	assert.Equal(t, uint64(500), sale.Price)

	assert.Equal(t, int64(1), countEvents(t, db, record.RecordID, domain.EventSold))
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	tokenID := mintToken(t, db, seller)
	// 550 < 500 price + 100 reserve
	fundAccount(t, db, buyer, 550)

	record, err := svc.CreateRecord(context.Background(), seller, tokenID, validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var buyerAcct domain.PaymentAccount
	require.NoError(t, db.Where("owner_id = ?", buyer).First(&buyerAcct).Error)
	assert.Equal(t, uint64(550), buyerAcct.Balance)
	got, err := svc.GetRecord(context.Background(), record.RecordID)
	require.NoError(t, err)
	assert.True(t, got.IsListed)
	assert.Equal(t, seller, got.OwnerID)
}

func TestPurchase_NoPaymentAccount(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	record, err := svc.CreateRecord(context.Background(), seller, mintToken(t, db, seller), validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestPurchase_Guards(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	fundAccount(t, db, buyer, 1000)
	record, err := svc.CreateRecord(context.Background(), seller, mintToken(t, db, seller), validDetails())
	require.NoError(t, err)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	assert.ErrorIs(t, err, ErrNotListed)

	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, uuid.New(), buyer)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, seller)
	assert.ErrorIs(t, err, ErrCannotBuyOwnProperty)

	_, _, err = svc.Purchase(context.Background(), uuid.New(), seller, buyer)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPurchase_FrozenTokenRollsBackPayment(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	tokenID := mintToken(t, db, seller)
	fundAccount(t, db, buyer, 1000)

	record, err := svc.CreateRecord(context.Background(), seller, tokenID, validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.TokenAccount{}).
		Where("owner_id = ? AND token_id = ?", seller, tokenID).
		Update("frozen", true).Error)

	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	assert.ErrorIs(t, err, ErrTransferFailed)

	// Payment leg must have been rolled back with the token leg
	var buyerAcct domain.PaymentAccount
	require.NoError(t, db.Where("owner_id = ?", buyer).First(&buyerAcct).Error)
	assert.Equal(t, uint64(1000), buyerAcct.Balance)
	var sellerAcct domain.PaymentAccount
	err = db.Where("owner_id = ?", seller).First(&sellerAcct).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := svc.GetRecord(context.Background(), record.RecordID)
	require.NoError(t, err)
	assert.Equal(t, seller, got.OwnerID)
	assert.True(t, got.IsListed)
	assert.Equal(t, uint64(500), got.ListPrice)

	var sales int64
	require.NoError(t, db.Model(&domain.SaleTransaction{}).Count(&sales).Error)
	assert.Equal(t, int64(0), sales)
	assert.Equal(t, int64(0), countEvents(t, db, record.RecordID, domain.EventSold))
}

func TestPurchase_ReserveOverflow(t *testing.T) {
	svc, db := setupRegistry(t)
	seller := uuid.New()
	buyer := uuid.New()
	fundAccount(t, db, buyer, 1000)
	record, err := svc.CreateRecord(context.Background(), seller, mintToken(t, db, seller), validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), record.RecordID, seller, 500)
	require.NoError(t, err)

	svc.ReserveMinimum = math.MaxUint64
	_, _, err = svc.Purchase(context.Background(), record.RecordID, seller, buyer)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestPurchase_SecondSaleOverwritesLastSalePrice(t *testing.T) {
	svc, db := setupRegistry(t)
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	tokenID := mintToken(t, db, alice)
	fundAccount(t, db, bob, 2000)
	fundAccount(t, db, carol, 2000)

	record, err := svc.CreateRecord(context.Background(), alice, tokenID, validDetails())
	require.NoError(t, err)

	_, err = svc.ListRecord(context.Background(), record.RecordID, alice, 500)
	require.NoError(t, err)
	_, paid, err := svc.Purchase(context.Background(), record.RecordID, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), paid)

	_, err = svc.ListRecord(context.Background(), record.RecordID, bob, 900)
	require.NoError(t, err)
	sold, paid, err := svc.Purchase(context.Background(), record.RecordID, bob, carol)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), paid)
	require.NotNil(t, sold.LastSalePrice)
	assert.Equal(t, uint64(900), *sold.LastSalePrice)
	assert.Equal(t, carol, sold.OwnerID)
}

func TestQueries(t *testing.T) {
	svc, db := setupRegistry(t)
	owner := uuid.New()
	other := uuid.New()

	r1, err := svc.CreateRecord(context.Background(), owner, mintToken(t, db, owner), validDetails())
	require.NoError(t, err)
	r2, err := svc.CreateRecord(context.Background(), other, mintToken(t, db, other), validDetails())
	require.NoError(t, err)
	_, err = svc.ListRecord(context.Background(), r2.RecordID, other, 750)
	require.NoError(t, err)

	all, err := svc.GetAllRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	listed, err := svc.GetListedRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, r2.RecordID, listed[0].RecordID)

	mine, err := svc.GetOwnerRecords(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, r1.RecordID, mine[0].RecordID)

	_, err = svc.GetRecord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
