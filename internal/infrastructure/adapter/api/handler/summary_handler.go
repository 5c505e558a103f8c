package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	summaryUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/summary"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
)

// SummaryHandler handles daily summary HTTP requests
type SummaryHandler struct {
	summaryService *summaryUseCase.Service
	logger         coreport.Logger
}

// NewSummaryHandler creates a new summary handler instance
func NewSummaryHandler(summaryService *summaryUseCase.Service, logger coreport.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		logger:         logger,
	}
}

// Rebuild handles POST /summaries/rebuild
func (h *SummaryHandler) Rebuild(c *gin.Context) {
	var req dto.RebuildSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid date, expected YYYY-MM-DD",
		})
		return
	}

	summary, err := h.summaryService.RebuildDailySummary(c.Request.Context(), req.OrganizationID, date, req.MachineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSummaryResponse(summary))
}

// Get handles GET /summaries
func (h *SummaryHandler) Get(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Query("organizationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "organizationId query parameter is required",
		})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "date query parameter is required, expected YYYY-MM-DD",
		})
		return
	}

	var machineID *uuid.UUID
	if machineParam := c.Query("machineId"); machineParam != "" {
		id, err := uuid.Parse(machineParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid machineId format",
			})
			return
		}
		machineID = &id
	}

	summary, err := h.summaryService.GetDailySummary(c.Request.Context(), organizationID, date, machineID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSummaryResponse(summary))
}
