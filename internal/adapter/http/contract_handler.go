package http

import (
	"net/http"

	"gadai-backend/internal/usecase/contract"

	"github.com/labstack/echo/v4"
)

type ContractHandler struct{ uc *contract.Usecase }

func NewContractHandler(uc *contract.Usecase) *ContractHandler { return &ContractHandler{uc: uc} }

type createContractReq struct {
	PawnerID    string  `json:"pawner_id"     validate:"required,hex32"`
	InvestorID  string  `json:"investor_id"   validate:"required,hex32"`
	DropPointID string  `json:"drop_point_id" validate:"required,hex32"`
	Principal   float64 `json:"principal"     validate:"required,gt=0,dec2"`
	// Fraction (0.03) or whole-number percentage (3); normalized downstream.
	MonthlyRate  float64 `json:"monthly_rate"  validate:"required,gt=0"`
	DurationDays int     `json:"duration_days" validate:"required,gte=1"`
}

func (h *ContractHandler) CreateContract(c echo.Context) error {
	var req createContractReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), contract.CreateContractInput{
		PawnerID:     req.PawnerID,
		InvestorID:   req.InvestorID,
		DropPointID:  req.DropPointID,
		Principal:    req.Principal,
		MonthlyRate:  req.MonthlyRate,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ContractHandler) GetContract(c echo.Context) error {
	contractID := c.Param("contract_id")
	if !reHex32.MatchString(contractID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contract_id must be 32-char lowercase hex"})
	}
	dto, err := h.uc.Get(c.Request().Context(), contractID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ContractHandler) GetLineage(c echo.Context) error {
	contractID := c.Param("contract_id")
	if !reHex32.MatchString(contractID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "contract_id must be 32-char lowercase hex"})
	}
	chain, err := h.uc.Lineage(c.Request().Context(), contractID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"contracts": chain})
}
