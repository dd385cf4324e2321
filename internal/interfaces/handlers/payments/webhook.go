package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deedbook-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookHandler processes Stripe payment_intent.succeeded events created by
// the deposit-intent endpoint and credits the owner's payment account.
type WebhookHandler struct {
	DB            *gorm.DB
	WebhookSecret string
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type paymentIntentObject struct {
	ID             string            `json:"id"`
	AmountReceived int               `json:"amount_received"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata"`
}

// HandleWebhook POST /api/v1/stripe/webhook — raw body, signature verification, then process.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	// Stripe sends "Stripe-Signature"; Fiber's Get is case-insensitive
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body (ensure no global body parser consumes the webhook body)")
		return c.Status(400).SendString("Webhook Error: empty body")
	}

	if err := verifyStripeSignature(rawBody, sig, wh.WebhookSecret); err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	var event stripeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Warn().Err(err).Msg("Stripe webhook JSON parse failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if event.Type == "payment_intent.succeeded" {
		var pi paymentIntentObject
		if err := json.Unmarshal(event.Data.Object, &pi); err != nil {
			return c.Status(200).SendString("ok")
		}

		if err := wh.handlePaymentIntentSucceeded(pi, event.ID, rawBody); err != nil {
			// Domain errors still return 200 to avoid Stripe retries
			log.Warn().Err(err).Str("payment_intent", pi.ID).Msg("Stripe deposit processing failed")
			return c.Status(200).SendString("ok")
		}
	}

	return c.Status(200).SendString("ok")
}

func (wh *WebhookHandler) handlePaymentIntentSucceeded(pi paymentIntentObject, eventID string, rawBody []byte) error {
	ownerIDStr := pi.Metadata["owner_id"]
	amountStr := pi.Metadata["amount"]

	if ownerIDStr == "" || amountStr == "" {
		return nil // not a deposit intent, skip silently
	}

	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		return nil
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil || amount == 0 {
		return nil
	}

	return wh.DB.Transaction(func(tx *gorm.DB) error {
		// Idempotency: one credit per payment intent
		var existing domain.Deposit
		if err := tx.Where("stripe_payment_intent_id = ?", pi.ID).First(&existing).Error; err == nil {
			return nil // already processed
		}

		deposit := domain.Deposit{
			StripePaymentIntentID: pi.ID,
			StripeEventID:         eventID,
			OwnerID:               ownerID,
			Amount:                amount,
			Currency:              pi.Currency,
			Status:                pi.Status,
			RawPaymentIntent:      datatypes.JSON(rawBody),
		}
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}

		return creditAccount(tx, ownerID, amount)
	})
}

// creditAccount adds the deposited amount to the owner's payment account,
// creating it on first deposit.
func creditAccount(tx *gorm.DB, ownerID uuid.UUID, amount uint64) error {
	var acct domain.PaymentAccount
	err := tx.Where("owner_id = ?", ownerID).First(&acct).Error
	if err == gorm.ErrRecordNotFound {
		acct = domain.PaymentAccount{OwnerID: ownerID, Balance: amount}
		return tx.Create(&acct).Error
	} else if err != nil {
		return err
	}
	acct.Balance += amount
	return tx.Save(&acct).Error
}

// verifyStripeSignature verifies the Stripe-Signature header using the webhook secret.
func verifyStripeSignature(payload []byte, sigHeader, secret string) error {
	if sigHeader == "" || secret == "" {
		return errors.New("missing signature or secret")
	}

	var timestamp string
	var signatures []string

	parts := strings.Split(sigHeader, ",")
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return errors.New("invalid signature format")
	}

	signedPayload := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expectedSig)) {
			// Check tolerance (5 minutes)
			ts, err := strconv.ParseInt(timestamp, 10, 64)
			if err != nil {
				return errors.New("invalid timestamp")
			}
			diff := time.Now().Unix() - ts
			if diff < 0 {
				diff = -diff
			}
			if diff > 300 {
				return errors.New("timestamp too old")
			}
			return nil
		}
	}

	return errors.New("signature mismatch")
}
