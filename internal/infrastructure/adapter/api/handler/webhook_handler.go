package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/usecase/gateway"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/middleware"
)

// WebhookHandler terminates payment provider callbacks. Authentication
// failures return 401; every other condition returns 200 with the
// provider's own envelope so providers stop retrying.
type WebhookHandler struct {
	gatewayService *gateway.Service
	logger         coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(gatewayService *gateway.Service, logger coreport.Logger) *WebhookHandler {
	return &WebhookHandler{
		gatewayService: gatewayService,
		logger:         logger,
	}
}

// Payme handles POST /webhooks/payme
func (h *WebhookHandler) Payme(c *gin.Context) {
	var req gateway.PaymeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.CountWebhook("payme", "malformed")
		c.JSON(http.StatusOK, gateway.PaymeFailure(gateway.PaymeErrInternal, "Malformed request"))
		return
	}

	resp, err := h.gatewayService.HandlePayme(c.Request.Context(), c.GetHeader("Authorization"), req)
	if err != nil {
		middleware.CountWebhook("payme", "auth_failed")
		c.JSON(http.StatusUnauthorized, resp)
		return
	}

	middleware.CountWebhook("payme", outcomeOf(resp.Error == nil))
	c.JSON(http.StatusOK, resp)
}

// Click handles POST /webhooks/click
func (h *WebhookHandler) Click(c *gin.Context) {
	var req gateway.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.CountWebhook("click", "malformed")
		c.JSON(http.StatusOK, gateway.ClickFailure(gateway.ClickErrFailedUpdate, "Malformed request"))
		return
	}

	resp, err := h.gatewayService.HandleClick(c.Request.Context(), req)
	if err != nil {
		middleware.CountWebhook("click", "auth_failed")
		c.JSON(http.StatusUnauthorized, resp)
		return
	}

	middleware.CountWebhook("click", outcomeOf(resp.Error == gateway.ClickOK))
	c.JSON(http.StatusOK, resp)
}

// Uzum handles POST /webhooks/uzum
func (h *WebhookHandler) Uzum(c *gin.Context) {
	var req gateway.UzumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.CountWebhook("uzum", "malformed")
		c.JSON(http.StatusOK, gateway.UzumResponse{Success: false})
		return
	}

	resp, err := h.gatewayService.HandleUzum(c.Request.Context(), req)
	if err != nil {
		middleware.CountWebhook("uzum", "auth_failed")
		c.JSON(http.StatusUnauthorized, resp)
		return
	}

	middleware.CountWebhook("uzum", outcomeOf(resp.Success))
	c.JSON(http.StatusOK, resp)
}

func outcomeOf(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
