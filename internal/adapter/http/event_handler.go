package http

import (
	"net/http"
	"time"

	"gadai-backend/internal/usecase/event"

	"github.com/labstack/echo/v4"
)

type EventHandler struct{ router *event.Router }

func NewEventHandler(router *event.Router) *EventHandler { return &EventHandler{router: router} }

type submitEventReq struct {
	ActorID      string    `json:"actor_id"      validate:"required,hex32"`
	Action       string    `json:"action"        validate:"required"`
	ContractID   string    `json:"contract_id"   validate:"omitempty,hex32"`
	RequestID    string    `json:"request_id"    validate:"omitempty,hex32"`
	RedemptionID string    `json:"redemption_id" validate:"omitempty,hex32"`
	EventAt      time.Time `json:"event_at"      validate:"required"`
}

func (h *EventHandler) Submit(c echo.Context) error {
	var req submitEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	ack, err := h.router.Submit(c.Request().Context(), event.Event{
		ActorID:      req.ActorID,
		Action:       event.Action(req.Action),
		ContractID:   req.ContractID,
		RequestID:    req.RequestID,
		RedemptionID: req.RedemptionID,
		EventAt:      req.EventAt,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}
