package registry

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	regsvc "deedbook-backend/internal/application/registry"
	"deedbook-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRegistryApp(t *testing.T, sessionUser *uuid.UUID) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.PropertyRecord{},
		&domain.PaymentAccount{},
		&domain.TokenAccount{},
		&domain.SaleTransaction{},
		&domain.RegistryEvent{},
	))

	h := &Handlers{Service: &regsvc.Service{DB: db, ReserveMinimum: 100}}
	app := fiber.New()
	if sessionUser != nil {
		uid := sessionUser.String()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user", map[string]interface{}{"user_id": uid})
			return c.Next()
		})
	}
	app.Post("/create-record", h.CreateRecord)
	app.Post("/list-record", h.ListRecord)
	app.Post("/cancel-listing", h.CancelListing)
	app.Post("/purchase-record", h.PurchaseRecord)
	app.Get("/get-record/:record_id", h.GetRecordByID)
	app.Get("/get-all-records", h.GetAllRecords)
	app.Get("/get-listed-records", h.GetListedRecords)
	app.Get("/get-owner-records", h.GetOwnerRecords)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (int, []byte) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func seedToken(t *testing.T, db *gorm.DB, owner uuid.UUID) uuid.UUID {
	acct := domain.TokenAccount{OwnerID: owner, TokenID: uuid.New(), Balance: 1}
	require.NoError(t, db.Create(&acct).Error)
	return acct.TokenID
}

func detailsPayload() map[string]interface{} {
	return map[string]interface{}{
		"address":        "27 Alameda Santos",
		"city":           "Porto",
		"rooms":          3,
		"bathrooms":      2,
		"kitchens":       1,
		"declared_price": 250000,
		"image_url":      "https://img.deedbook.app/27-alameda.jpg",
	}
}

func createRecordForTest(t *testing.T, app *fiber.App, db *gorm.DB, owner uuid.UUID) uuid.UUID {
	t.Helper()
	tokenID := seedToken(t, db, owner)
	code, body := postJSON(t, app, "/create-record", map[string]interface{}{
		"token_id": tokenID.String(),
		"details":  detailsPayload(),
	})
	require.Equal(t, 201, code, string(body))
	var out struct {
		Data domain.PropertyRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Data.RecordID
}

func TestCreateRecordHandler(t *testing.T) {
	owner := uuid.New()
	app, db := setupRegistryApp(t, &owner)
	tokenID := seedToken(t, db, owner)

	code, body := postJSON(t, app, "/create-record", map[string]interface{}{
		"token_id": tokenID.String(),
		"details":  detailsPayload(),
	})
	assert.Equal(t, 201, code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out["status"])

	// Same token again: bound to the first record
	code, _ = postJSON(t, app, "/create-record", map[string]interface{}{
		"token_id": tokenID.String(),
		"details":  detailsPayload(),
	})
	assert.Equal(t, 400, code)
}

func TestCreateRecordHandler_BadToken(t *testing.T) {
	owner := uuid.New()
	app, _ := setupRegistryApp(t, &owner)

	code, _ := postJSON(t, app, "/create-record", map[string]interface{}{
		"token_id": "not-a-uuid",
		"details":  detailsPayload(),
	})
	assert.Equal(t, 400, code)
}

func TestCreateRecordHandler_NoSession(t *testing.T) {
	app, _ := setupRegistryApp(t, nil)
	code, _ := postJSON(t, app, "/create-record", map[string]interface{}{
		"token_id": uuid.New().String(),
		"details":  detailsPayload(),
	})
	assert.Equal(t, 403, code)
}

func TestListAndCancelHandlers(t *testing.T) {
	owner := uuid.New()
	app, db := setupRegistryApp(t, &owner)
	recordID := createRecordForTest(t, app, db, owner)

	code, _ := postJSON(t, app, "/list-record", map[string]interface{}{"record_id": recordID.String()})
	assert.Equal(t, 400, code, "price is required")

	code, _ = postJSON(t, app, "/list-record", map[string]interface{}{"record_id": recordID.String(), "price": 500})
	assert.Equal(t, 200, code)

	code, _ = postJSON(t, app, "/list-record", map[string]interface{}{"record_id": recordID.String(), "price": 600})
	assert.Equal(t, 409, code, "double list")

	code, _ = postJSON(t, app, "/cancel-listing", map[string]interface{}{"record_id": recordID.String()})
	assert.Equal(t, 200, code)

	code, _ = postJSON(t, app, "/cancel-listing", map[string]interface{}{"record_id": recordID.String()})
	assert.Equal(t, 409, code, "cancel unlisted")

	code, _ = postJSON(t, app, "/cancel-listing", map[string]interface{}{"record_id": uuid.New().String()})
	assert.Equal(t, 404, code)
}

func TestPurchaseHandler(t *testing.T) {
	buyer := uuid.New()
	app, db := setupRegistryApp(t, &buyer)

	seller := uuid.New()
	tokenID := seedToken(t, db, seller)
	record := domain.PropertyRecord{
		OwnerID:   seller,
		TokenID:   tokenID,
		Details:   domain.PropertyDetails{Address: "27 Alameda Santos", City: "Porto", Rooms: 3, Bathrooms: 2, DeclaredPrice: 250000, ImageURL: "x"},
		IsListed:  true,
		ListPrice: 500,
	}
	require.NoError(t, db.Create(&record).Error)
	require.NoError(t, db.Create(&domain.PaymentAccount{OwnerID: buyer, Balance: 1000}).Error)

	code, body := postJSON(t, app, "/purchase-record", map[string]interface{}{
		"record_id": record.RecordID.String(),
		"seller_id": seller.String(),
	})
	require.Equal(t, 200, code, string(body))

	var out struct {
		Data struct {
			Record     domain.PropertyRecord `json:"record"`
			AmountPaid uint64                `json:"amount_paid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, uint64(500), out.Data.AmountPaid)
	assert.Equal(t, buyer, out.Data.Record.OwnerID)
	assert.False(t, out.Data.Record.IsListed)

	// Record is no longer listed
	code, _ = postJSON(t, app, "/purchase-record", map[string]interface{}{
		"record_id": record.RecordID.String(),
		"seller_id": seller.String(),
	})
	assert.Equal(t, 409, code)
}

func TestPurchaseHandler_SelfPurchase(t *testing.T) {
	owner := uuid.New()
	app, db := setupRegistryApp(t, &owner)
	recordID := createRecordForTest(t, app, db, owner)
	code, _ := postJSON(t, app, "/list-record", map[string]interface{}{"record_id": recordID.String(), "price": 500})
	require.Equal(t, 200, code)
	require.NoError(t, db.Create(&domain.PaymentAccount{OwnerID: owner, Balance: 10000}).Error)

	code, _ = postJSON(t, app, "/purchase-record", map[string]interface{}{
		"record_id": recordID.String(),
		"seller_id": owner.String(),
	})
	assert.Equal(t, 403, code)
}

func TestPurchaseHandler_InsufficientFunds(t *testing.T) {
	buyer := uuid.New()
	app, db := setupRegistryApp(t, &buyer)

	seller := uuid.New()
	record := domain.PropertyRecord{
		OwnerID:   seller,
		TokenID:   seedToken(t, db, seller),
		Details:   domain.PropertyDetails{Address: "x", City: "y", Rooms: 1, Bathrooms: 1, DeclaredPrice: 1, ImageURL: "z"},
		IsListed:  true,
		ListPrice: 500,
	}
	require.NoError(t, db.Create(&record).Error)
	// 550 < 500 price + 100 reserve
	require.NoError(t, db.Create(&domain.PaymentAccount{OwnerID: buyer, Balance: 550}).Error)

	code, _ := postJSON(t, app, "/purchase-record", map[string]interface{}{
		"record_id": record.RecordID.String(),
		"seller_id": seller.String(),
	})
	assert.Equal(t, 400, code)
}

func TestGetEndpoints(t *testing.T) {
	owner := uuid.New()
	app, db := setupRegistryApp(t, &owner)
	recordID := createRecordForTest(t, app, db, owner)

	req := httptest.NewRequest("GET", "/get-record/"+recordID.String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("GET", "/get-record/not-a-uuid", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	req = httptest.NewRequest("GET", "/get-record/"+uuid.New().String(), nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	for _, path := range []string{"/get-all-records", "/get-listed-records", "/get-owner-records"} {
		req = httptest.NewRequest("GET", path, nil)
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, path)
	}
}
