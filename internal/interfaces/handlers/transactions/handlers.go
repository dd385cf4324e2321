package transactions

import (
	txsvc "deedbook-backend/internal/application/transactions"
	"deedbook-backend/internal/middleware"
	"deedbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /api/v1/transactions/get-transactions — the caller's sale history.
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	m, ok := user.(map[string]interface{})
	if !ok {
		return response.Error(c, "Authorization error", 500, nil)
	}
	idStr, _ := m["user_id"].(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return response.Error(c, "Authorization error", 500, nil)
	}

	data, err := h.Service.ViewTransactions(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Transactions fetched successfully", data, nil)
}
