package accounts

import (
	"errors"
	"fmt"
	"strconv"

	ledgersvc "deedbook-backend/internal/application/ledger"
	tokensvc "deedbook-backend/internal/application/tokens"
	"deedbook-backend/internal/middleware"
	"deedbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Handlers struct {
	Ledger        *ledgersvc.Service
	Tokens        *tokensvc.Service
	StripeCreator StripePaymentIntentCreator
}

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type StripePaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &StripePaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// GET /api/v1/accounts/view-wallet — payment balance + token holdings.
func (h *Handlers) ViewWallet(c *fiber.Ctx) error {
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	acct, err := h.Ledger.Balance(c.Context(), callerID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	holdings, err := h.Tokens.Holdings(c.Context(), callerID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Wallet fetched successfully", fiber.Map{
		"balance": acct.Balance,
		"tokens":  holdings,
	}, nil)
}

// POST /api/v1/accounts/mint-token — mints a fresh ownership token for the
// caller (prerequisite for create-record).
func (h *Handlers) MintToken(c *fiber.Ctx) error {
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}
	acct, err := h.Tokens.Mint(c.Context(), callerID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Token minted successfully", acct, nil)
}

// POST /api/v1/accounts/freeze-token — marks a holder's token account frozen
// or unfrozen (superadmin only, route-gated).
func (h *Handlers) FreezeToken(c *fiber.Ctx) error {
	var body struct {
		OwnerID string `json:"owner_id"`
		TokenID string `json:"token_id"`
		Frozen  *bool  `json:"frozen"`
	}
	if err := c.BodyParser(&body); err != nil || body.OwnerID == "" || body.TokenID == "" || body.Frozen == nil {
		return response.Error(c, "owner_id, token_id and frozen are required", 400, nil)
	}
	ownerID, err := uuid.Parse(body.OwnerID)
	if err != nil {
		return response.Error(c, "Invalid owner_id", 400, nil)
	}
	tokenID, err := uuid.Parse(body.TokenID)
	if err != nil {
		return response.Error(c, "Invalid token_id", 400, nil)
	}
	if err := h.Tokens.Freeze(c.Context(), ownerID, tokenID, *body.Frozen); err != nil {
		if errors.Is(err, tokensvc.ErrTokenAccountNotFound) {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Token account updated", nil, nil)
}

// POST /api/v1/accounts/deposit-intent — creates a Stripe PaymentIntent to
// fund the caller's payment account; the webhook credits the balance once
// the intent succeeds.
func (h *Handlers) DepositIntent(c *fiber.Ctx) error {
	var body struct {
		Amount uint64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil || body.Amount == 0 {
		return response.Error(c, "A positive amount is required", 400, nil)
	}
	callerID, err := sessionUserID(c)
	if err != nil {
		return response.Error(c, err.Error(), 403, nil)
	}

	result, err := h.StripeCreator.Create(int64(body.Amount), "usd", map[string]string{
		"owner_id": callerID.String(),
		"amount":   strconv.FormatUint(body.Amount, 10),
	})
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return response.Error(c, fe.Message, fe.Code, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Deposit intent created", result, nil)
}

func sessionUserID(c *fiber.Ctx) (uuid.UUID, error) {
	user := middleware.GetUser(c)
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
