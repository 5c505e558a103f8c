package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
	collectionUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/collection"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/middleware"
)

// CollectionHandler handles cash collection HTTP requests
type CollectionHandler struct {
	collectionService *collectionUseCase.Service
	logger            coreport.Logger
}

// NewCollectionHandler creates a new collection handler instance
func NewCollectionHandler(collectionService *collectionUseCase.Service, logger coreport.Logger) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		logger:            logger,
	}
}

// Create handles POST /collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	rec, err := h.collectionService.CreateCollectionRecord(c.Request.Context(), collectionUseCase.CreateCollectionRequest{
		OrganizationID: req.OrganizationID,
		MachineID:      req.MachineID,
		CollectorID:    req.CollectorID,
		ActualCash:     req.ActualCash,
		ActualCoin:     req.ActualCoin,
		ActualTotal:    req.ActualTotal,
		ExpectedCash:   req.ExpectedCash,
		ExpectedCoin:   req.ExpectedCoin,
		ExpectedTotal:  req.ExpectedTotal,
		CounterBefore:  req.CounterBefore,
		CounterAfter:   req.CounterAfter,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCollectionResponse(rec))
}

// Get handles GET /collections/:collectionId
func (h *CollectionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "collectionId")
	if !ok {
		return
	}

	rec, err := h.collectionService.GetCollection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCollectionResponse(rec))
}

// Verify handles POST /collections/:collectionId/verify
func (h *CollectionHandler) Verify(c *gin.Context) {
	id, ok := parseIDParam(c, "collectionId")
	if !ok {
		return
	}

	var req dto.VerifyCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	rec, err := h.collectionService.VerifyCollection(c.Request.Context(), id, middleware.ActorID(c), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCollectionResponse(rec))
}

// List handles GET /collections
func (h *CollectionHandler) List(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Query("organizationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "organizationId query parameter is required",
		})
		return
	}

	filter := persistence.CollectionFilter{OrganizationID: organizationID}

	if machineParam := c.Query("machineId"); machineParam != "" {
		machineID, err := uuid.Parse(machineParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid machineId format",
			})
			return
		}
		filter.MachineID = &machineID
	}
	if fromParam := c.Query("from"); fromParam != "" {
		if from, err := time.Parse(time.RFC3339, fromParam); err == nil {
			filter.From = &from
		}
	}
	if toParam := c.Query("to"); toParam != "" {
		if to, err := time.Parse(time.RFC3339, toParam); err == nil {
			filter.To = &to
		}
	}
	filter.OnlyUnverified = c.Query("onlyUnverified") == "true"
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.collectionService.ListCollections(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.CollectionListResponse{
		Collections: make([]dto.CollectionResponse, 0, len(records)),
		Count:       len(records),
	}
	for i := range records {
		resp.Collections = append(resp.Collections, dto.ToCollectionResponse(&records[i]))
	}
	c.JSON(http.StatusOK, resp)
}
