package http

import (
	"net/http"
	"strconv"

	"gadai-backend/internal/usecase/actionrequest"

	"github.com/labstack/echo/v4"
)

type ActionRequestHandler struct{ uc *actionrequest.Usecase }

func NewActionRequestHandler(uc *actionrequest.Usecase) *ActionRequestHandler {
	return &ActionRequestHandler{uc: uc}
}

type createActionRequestReq struct {
	Type               string  `json:"request_type"         validate:"required,oneof=principal_increase principal_decrease pay_interest"`
	Amount             float64 `json:"amount"               validate:"required,gt=0,dec2"`
	SigningArtifactRef string  `json:"signing_artifact_ref" validate:"omitempty,url"`
}

func (h *ActionRequestHandler) CreateRequest(c echo.Context) error {
	contractID := c.Param("contract_id")
	if !reHex32.MatchString(contractID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contract_id must be 32-char lowercase hex"})
	}
	var req createActionRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), actionrequest.CreateRequestInput{
		ContractID:         contractID,
		Type:               req.Type,
		Amount:             req.Amount,
		SigningArtifactRef: req.SigningArtifactRef,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ActionRequestHandler) GetRequest(c echo.Context) error {
	requestID := c.Param("request_id")
	if !reHex32.MatchString(requestID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request_id must be 32-char lowercase hex"})
	}
	dto, err := h.uc.Get(c.Request().Context(), requestID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// step adapts the shared transition shape: path param in, Result out.
func (h *ActionRequestHandler) step(c echo.Context, fn func(ctx echo.Context, requestID string) (any, error)) error {
	requestID := c.Param("request_id")
	if !reHex32.MatchString(requestID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request_id must be 32-char lowercase hex"})
	}
	res, err := fn(c, requestID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ActionRequestHandler) Approve(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (any, error) {
		return h.uc.Approve(c.Request().Context(), id)
	})
}

func (h *ActionRequestHandler) RecordTransfer(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (any, error) {
		return h.uc.RecordTransfer(c.Request().Context(), id)
	})
}

func (h *ActionRequestHandler) ConfirmReceived(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (any, error) {
		return h.uc.ConfirmReceived(c.Request().Context(), id)
	})
}

func (h *ActionRequestHandler) Cancel(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (any, error) {
		return h.uc.Cancel(c.Request().Context(), id)
	})
}

func (h *ActionRequestHandler) GetProjection(c echo.Context) error {
	contractID := c.Param("contract_id")
	if !reHex32.MatchString(contractID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contract_id must be 32-char lowercase hex"})
	}
	actionType := c.QueryParam("action_type")
	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil || amount < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a non-negative number"})
	}
	p, err := h.uc.Projection(c.Request().Context(), contractID, amount, actionType)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
