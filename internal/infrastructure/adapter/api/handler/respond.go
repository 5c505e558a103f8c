package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
)

// respondError maps a domain error to an HTTP status and the standard error body
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case domainerr.IsNotFoundError(err):
		return http.StatusNotFound
	case domainerr.IsAuthenticationError(err):
		return http.StatusUnauthorized
	case domainerr.IsStateConflictError(err),
		errors.Is(err, domainerr.ErrAlreadyVerified),
		errors.Is(err, domainerr.ErrDuplicateCommission):
		return http.StatusConflict
	case domainerr.IsValidationError(err),
		errors.Is(err, domainerr.ErrInvalidAmount),
		errors.Is(err, domainerr.ErrRefundExceedsTotal),
		errors.Is(err, domainerr.ErrEmptyCommissionBase):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
