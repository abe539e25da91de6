package http

import (
	"net/http"

	"gadai-backend/internal/usecase/redemption"

	"github.com/labstack/echo/v4"
)

type RedemptionHandler struct{ uc *redemption.Usecase }

func NewRedemptionHandler(uc *redemption.Usecase) *RedemptionHandler {
	return &RedemptionHandler{uc: uc}
}

func (h *RedemptionHandler) Initiate(c echo.Context) error {
	contractID := c.Param("contract_id")
	if !reHex32.MatchString(contractID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contract_id must be 32-char lowercase hex"})
	}
	res, err := h.uc.Initiate(c.Request().Context(), contractID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if res.Applied {
		return c.JSON(http.StatusCreated, res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *RedemptionHandler) step(c echo.Context, fn func(ctx echo.Context, redemptionID string) (*redemption.Result, error)) error {
	redemptionID := c.Param("redemption_id")
	if !reHex32.MatchString(redemptionID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "redemption_id must be 32-char lowercase hex"})
	}
	res, err := fn(c, redemptionID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *RedemptionHandler) ConfirmDelivery(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (*redemption.Result, error) {
		return h.uc.ConfirmPawnerDelivery(c.Request().Context(), id)
	})
}

func (h *RedemptionHandler) ConfirmReceipt(c echo.Context) error {
	return h.step(c, func(c echo.Context, id string) (*redemption.Result, error) {
		return h.uc.ConfirmInvestorReceipt(c.Request().Context(), id)
	})
}

func (h *RedemptionHandler) GetRedemption(c echo.Context) error {
	redemptionID := c.Param("redemption_id")
	if !reHex32.MatchString(redemptionID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "redemption_id must be 32-char lowercase hex"})
	}
	dto, err := h.uc.Get(c.Request().Context(), redemptionID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
