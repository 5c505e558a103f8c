package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
	ledgerUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/ledger"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/middleware"
)

// TransactionHandler handles transaction lifecycle HTTP requests
type TransactionHandler struct {
	ledgerService *ledgerUseCase.Service
	logger        coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(ledgerService *ledgerUseCase.Service, logger coreport.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid " + name + " format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	items := make([]ledgerUseCase.CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ledgerUseCase.CreateItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	txn, err := h.ledgerService.CreateTransaction(c.Request.Context(), ledgerUseCase.CreateTransactionRequest{
		OrganizationID: req.OrganizationID,
		MachineID:      req.MachineID,
		ContractID:     req.ContractID,
		Currency:       req.Currency,
		Items:          items,
		Metadata:       req.Metadata,
		Actor:          middleware.ActorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// Get handles GET /transactions/:transactionId
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "transactionId")
	if !ok {
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// List handles GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Query("organizationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "organizationId query parameter is required",
		})
		return
	}

	filter := persistence.TransactionFilter{OrganizationID: organizationID}

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
	if typeParam := c.Query("type"); typeParam != "" {
		filter.Types = []entity.TransactionType{entity.TransactionType(typeParam)}
	}
	if statusParam := c.Query("status"); statusParam != "" {
		filter.Statuses = []entity.TransactionStatus{entity.TransactionStatus(statusParam)}
	}
	if fromParam := c.Query("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid from timestamp, expected RFC3339",
			})
			return
		}
		filter.From = &from
	}
	if toParam := c.Query("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid to timestamp, expected RFC3339",
			})
			return
		}
		filter.To = &to
	}
	filter.WithItems = c.Query("withItems") == "true"
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, err := h.ledgerService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(transactions)),
		Count:        len(transactions),
	}
	for i := range transactions {
		resp.Transactions = append(resp.Transactions, dto.ToTransactionResponse(&transactions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessPayment handles POST /transactions/:transactionId/payment
func (h *TransactionHandler) ProcessPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "transactionId")
	if !ok {
		return
	}

	var req dto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := entity.ParseAmount(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: "Invalid amount: " + err.Error(),
			})
			return
		}
		amount = parsed
	}

	txn, err := h.ledgerService.ProcessPayment(c.Request.Context(), ledgerUseCase.ProcessPaymentRequest{
		TransactionID: id,
		Method:        entity.PaymentMethod(req.Method),
		Amount:        amount,
		ExternalRef:   req.ExternalRef,
		Actor:         middleware.ActorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// RecordDispense handles POST /transactions/:transactionId/dispense
func (h *TransactionHandler) RecordDispense(c *gin.Context) {
	if _, ok := parseIDParam(c, "transactionId"); !ok {
		return
	}

	var req dto.RecordDispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	txn, err := h.ledgerService.RecordDispense(c.Request.Context(), ledgerUseCase.RecordDispenseRequest{
		ItemID:   req.ItemID,
		Outcome:  entity.DispenseStatus(req.Outcome),
		Quantity: req.Quantity,
		Error:    req.Error,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// CreateRefund handles POST /transactions/:transactionId/refund
func (h *TransactionHandler) CreateRefund(c *gin.Context) {
	id, ok := parseIDParam(c, "transactionId")
	if !ok {
		return
	}

	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	amount, err := entity.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Invalid amount: " + err.Error(),
		})
		return
	}

	refund, err := h.ledgerService.CreateRefund(c.Request.Context(), ledgerUseCase.CreateRefundRequest{
		OriginalTransactionID: id,
		Amount:                amount,
		Reason:                req.Reason,
		Actor:                 middleware.ActorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(refund))
}

// Cancel handles POST /transactions/:transactionId/cancel
func (h *TransactionHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "transactionId")
	if !ok {
		return
	}

	var req dto.CancelTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	txn, err := h.ledgerService.Cancel(c.Request.Context(), id, req.Reason, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// Delete handles DELETE /transactions/:transactionId
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "transactionId")
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
