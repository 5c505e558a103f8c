package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	commissionUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/commission"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/middleware"
)

// CommissionHandler handles commission HTTP requests
type CommissionHandler struct {
	commissionService *commissionUseCase.Service
	logger            coreport.Logger
}

// NewCommissionHandler creates a new commission handler instance
func NewCommissionHandler(commissionService *commissionUseCase.Service, logger coreport.Logger) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		logger:            logger,
	}
}

// Calculate handles POST /commissions/calculate
func (h *CommissionHandler) Calculate(c *gin.Context) {
	var req dto.CalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	commission, err := h.commissionService.CalculateCommission(
		c.Request.Context(),
		req.OrganizationID, req.ContractID,
		req.PeriodStart, req.PeriodEnd,
		middleware.ActorID(c),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommissionResponse(commission))
}

// Get handles GET /commissions/:commissionId
func (h *CommissionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "commissionId")
	if !ok {
		return
	}

	commission, err := h.commissionService.GetCommission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommissionResponse(commission))
}

// MarkPaid handles POST /commissions/:commissionId/pay
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	id, ok := parseIDParam(c, "commissionId")
	if !ok {
		return
	}

	commission, err := h.commissionService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommissionResponse(commission))
}

// Cancel handles POST /commissions/:commissionId/cancel
func (h *CommissionHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "commissionId")
	if !ok {
		return
	}

	commission, err := h.commissionService.CancelCommission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommissionResponse(commission))
}

// List handles GET /commissions
func (h *CommissionHandler) List(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Query("organizationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "organizationId query parameter is required",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	commissions, err := h.commissionService.ListCommissions(c.Request.Context(), organizationID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.CommissionListResponse{
		Commissions: make([]dto.CommissionResponse, 0, len(commissions)),
		Count:       len(commissions),
	}
	for i := range commissions {
		resp.Commissions = append(resp.Commissions, dto.ToCommissionResponse(&commissions[i]))
	}
	c.JSON(http.StatusOK, resp)
}
