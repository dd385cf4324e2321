package events

import (
	eventsvc "deedbook-backend/internal/application/events"
	"deedbook-backend/internal/middleware"
	"deedbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GET /api/v1/events/get-record-events/:record_id — full audit trail of one record.
func (h *Handlers) GetRecordEvents(c *fiber.Ctx) error {
	recordID, err := uuid.Parse(c.Params("record_id"))
	if err != nil {
		return response.Error(c, "Invalid record_id format", 400, nil)
	}
	data, err := h.Service.GetRecordEvents(c.Context(), recordID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Record events fetched successfully", data, nil)
}

// GET /api/v1/events/get-my-events — every transition the caller performed.
func (h *Handlers) GetMyEvents(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	m, ok := user.(map[string]interface{})
	if !ok {
		return response.Error(c, "Not authenticated", 403, nil)
	}
	idStr, _ := m["user_id"].(string)
	actorID, err := uuid.Parse(idStr)
	if err != nil {
		return response.Error(c, "Not authenticated", 403, nil)
	}
	data, err := h.Service.GetActorEvents(c.Context(), actorID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Actor events fetched successfully", data, nil)
}
