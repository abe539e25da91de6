package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Handlers bundles everything RegisterRoutes wires onto the server.
type Handlers struct {
	Health        *Handler
	Contract      *ContractHandler
	ActionRequest *ActionRequestHandler
	Redemption    *RedemptionHandler
	Event         *EventHandler
}

// RegisterRoutes mounts all routes. idemp guards the mutating ones; pass nil
// to skip it (tests).
func RegisterRoutes(e *echo.Echo, h Handlers, idemp echo.MiddlewareFunc) {
	mutating := []echo.MiddlewareFunc{}
	if idemp != nil {
		mutating = append(mutating, idemp)
	}

	e.GET("/health", h.Health.Health)

	e.POST("/events", h.Event.Submit, mutating...)

	e.POST("/contracts", h.Contract.CreateContract, mutating...)
	e.GET("/contracts/:contract_id", h.Contract.GetContract)
	e.GET("/contracts/:contract_id/lineage", h.Contract.GetLineage)
	e.GET("/contracts/:contract_id/projection", h.ActionRequest.GetProjection)

	e.POST("/contracts/:contract_id/action-requests", h.ActionRequest.CreateRequest, mutating...)
	e.GET("/action-requests/:request_id", h.ActionRequest.GetRequest)
	e.POST("/action-requests/:request_id/approve", h.ActionRequest.Approve, mutating...)
	e.POST("/action-requests/:request_id/transfer", h.ActionRequest.RecordTransfer, mutating...)
	e.POST("/action-requests/:request_id/confirm-received", h.ActionRequest.ConfirmReceived, mutating...)
	e.POST("/action-requests/:request_id/cancel", h.ActionRequest.Cancel, mutating...)

	e.POST("/contracts/:contract_id/redemptions", h.Redemption.Initiate, mutating...)
	e.GET("/redemptions/:redemption_id", h.Redemption.GetRedemption)
	e.POST("/redemptions/:redemption_id/confirm-delivery", h.Redemption.ConfirmDelivery, mutating...)
	e.POST("/redemptions/:redemption_id/confirm-receipt", h.Redemption.ConfirmReceipt, mutating...)
}
