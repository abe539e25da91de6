package http

import (
	"errors"
	"net/http"

	requestDomain "gadai-backend/internal/domain/actionrequest"
	contractDomain "gadai-backend/internal/domain/contract"
	redemptionDomain "gadai-backend/internal/domain/redemption"
	requestUC "gadai-backend/internal/usecase/actionrequest"
	contractUC "gadai-backend/internal/usecase/contract"
	"gadai-backend/internal/usecase/event"
	"gadai-backend/pkg/fincalc"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// writeDomainError maps a usecase error onto an HTTP response. Guard
// rejections never reach here: those come back as 200 with applied=false.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, contractDomain.ErrNotFound),
		errors.Is(err, requestDomain.ErrNotFound),
		errors.Is(err, redemptionDomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})

	case errors.Is(err, requestDomain.ErrActiveExists),
		errors.Is(err, requestDomain.ErrAlreadyTerminal),
		errors.Is(err, requestDomain.ErrInvalidTransition),
		errors.Is(err, contractDomain.ErrInvalidTransition),
		errors.Is(err, contractDomain.ErrContractClosed),
		errors.Is(err, contractDomain.ErrActiveSuccessor),
		errors.Is(err, contractDomain.ErrRedemptionInProgress),
		errors.Is(err, redemptionDomain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, contractUC.ErrInvalidInput),
		errors.Is(err, requestUC.ErrInvalidInput),
		errors.Is(err, requestDomain.ErrUnknownType),
		errors.Is(err, event.ErrUnknownAction),
		errors.Is(err, event.ErrMissingField):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, fincalc.ErrNegativeAmount),
		errors.Is(err, fincalc.ErrInvalidRate),
		errors.Is(err, fincalc.ErrInvalidDuration),
		errors.Is(err, fincalc.ErrRateBelowFee),
		errors.Is(err, fincalc.ErrNegativeProfit),
		errors.Is(err, fincalc.ErrNotReconciled),
		errors.Is(err, contractDomain.ErrPrincipalBelowZero),
		errors.Is(err, contractDomain.ErrIllegalStatusCombo):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
