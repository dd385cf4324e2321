package registry

import (
	"errors"
	"fmt"

	regsvc "deedbook-backend/internal/application/registry"
	"deedbook-backend/internal/domain"
	"deedbook-backend/internal/middleware"
	"deedbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *regsvc.Service
}

// CreateRecordRequest body for POST /create-record.
type CreateRecordRequest struct {
	TokenID string                 `json:"token_id"`
	Details domain.PropertyDetails `json:"details"`
}

// POST /api/v1/registry/create-record — 201 with the new record.
func (h *Handlers) CreateRecord(c *fiber.Ctx) error {
	var body CreateRecordRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	tokenID, err := uuid.Parse(body.TokenID)
	if err != nil {
		return response.Error(c, "Invalid token_id", 400, nil)
	}

	record, err := h.Service.CreateRecord(c.Context(), callerID, tokenID, body.Details)
	if err != nil {
		return registryError(c, err)
	}
	return response.SuccessCreated(c, "Property record created successfully", record, nil)
}

// ListRecordRequest body for POST /list-record.
type ListRecordRequest struct {
	RecordID string  `json:"record_id"`
	Price    *uint64 `json:"price"`
}

// POST /api/v1/registry/list-record
func (h *Handlers) ListRecord(c *fiber.Ctx) error {
	var body ListRecordRequest
	if err := c.BodyParser(&body); err != nil || body.RecordID == "" || body.Price == nil {
		return response.Error(c, "record_id and price are required", 400, nil)
	}
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	recordID, err := uuid.Parse(body.RecordID)
	if err != nil {
		return response.Error(c, "Invalid record_id", 400, nil)
	}

	record, err := h.Service.ListRecord(c.Context(), recordID, callerID, *body.Price)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Record listed for sale", record, nil)
}

// POST /api/v1/registry/cancel-listing
func (h *Handlers) CancelListing(c *fiber.Ctx) error {
	var body struct {
		RecordID string `json:"record_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.RecordID == "" {
		return response.Error(c, "record_id is required", 400, nil)
	}
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	recordID, err := uuid.Parse(body.RecordID)
	if err != nil {
		return response.Error(c, "Invalid record_id", 400, nil)
	}

	record, err := h.Service.CancelListing(c.Context(), recordID, callerID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Listing cancelled successfully", record, nil)
}

// PurchaseRequest body for POST /purchase-record. seller_id must match the
// record's current owner.
type PurchaseRequest struct {
	RecordID string `json:"record_id"`
	SellerID string `json:"seller_id"`
}

// POST /api/v1/registry/purchase-record
func (h *Handlers) PurchaseRecord(c *fiber.Ctx) error {
	var body PurchaseRequest
	if err := c.BodyParser(&body); err != nil || body.RecordID == "" || body.SellerID == "" {
		return response.Error(c, "record_id and seller_id are required", 400, nil)
	}
	buyerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	recordID, err := uuid.Parse(body.RecordID)
	if err != nil {
		return response.Error(c, "Invalid record_id", 400, nil)
	}
	sellerID, err := uuid.Parse(body.SellerID)
	if err != nil {
		return response.Error(c, "Invalid seller_id", 400, nil)
	}

	record, paid, err := h.Service.Purchase(c.Context(), recordID, sellerID, buyerID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Property purchased successfully", fiber.Map{
		"record":      record,
		"amount_paid": paid,
	}, nil)
}

// GET /api/v1/registry/get-record/:record_id
func (h *Handlers) GetRecordByID(c *fiber.Ctx) error {
	idStr := c.Params("record_id")
	recordID, err := uuid.Parse(idStr)
	if err != nil {
		return response.Error(c, "Invalid record_id format", 400, nil)
	}
	record, err := h.Service.GetRecord(c.Context(), recordID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Record fetched successfully", record, nil)
}

// GET /api/v1/registry/get-all-records
func (h *Handlers) GetAllRecords(c *fiber.Ctx) error {
	records, err := h.Service.GetAllRecords(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Records fetched successfully", records, nil)
}

// GET /api/v1/registry/get-listed-records
func (h *Handlers) GetListedRecords(c *fiber.Ctx) error {
	records, err := h.Service.GetListedRecords(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Listed records fetched", records, nil)
}

// GET /api/v1/registry/get-owner-records
func (h *Handlers) GetOwnerRecords(c *fiber.Ctx) error {
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	records, err := h.Service.GetOwnerRecords(c.Context(), callerID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Owner records fetched", records, nil)
}

// registryError maps service errors to HTTP statuses.
func registryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, regsvc.ErrInvalidPropertyData),
		errors.Is(err, regsvc.ErrStringTooLong),
		errors.Is(err, regsvc.ErrInvalidTokenBinding),
		errors.Is(err, regsvc.ErrInvalidPrice),
		errors.Is(err, regsvc.ErrPriceExceedsLimit),
		errors.Is(err, regsvc.ErrInsufficientFunds),
		errors.Is(err, regsvc.ErrOverflow):
		return response.Error(c, err.Error(), 400, nil)
	case errors.Is(err, regsvc.ErrNotOwner),
		errors.Is(err, regsvc.ErrCannotBuyOwnProperty):
		return response.Error(c, err.Error(), 403, nil)
	case errors.Is(err, regsvc.ErrRecordNotFound):
		return response.Error(c, err.Error(), 404, nil)
	case errors.Is(err, regsvc.ErrAlreadyListed),
		errors.Is(err, regsvc.ErrNotListed):
		return response.Error(c, err.Error(), 409, nil)
	case errors.Is(err, regsvc.ErrTransferFailed):
		return response.Error(c, err.Error(), 422, nil)
	default:
		return response.Error(c, "Internal Server Error", 500, nil)
	}
}

// sessionUserID returns the authenticated identity from the session.
func sessionUserID(c *fiber.Ctx) (uuid.UUID, error) {
	user := middleware.GetUser(c)
	if user == nil {
		return uuid.Nil, fmt.Errorf("Not authenticated")
	}
	m, ok := user.(map[string]interface{})
	if !ok {
		return uuid.Nil, fmt.Errorf("Not authenticated")
	}
	idStr, _ := m["user_id"].(string)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("Not authenticated")
	}
	return uuid.Parse(idStr)
}
