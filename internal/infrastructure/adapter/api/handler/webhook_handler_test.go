package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/usecase/gateway"
	"github.com/vendtrack/vending-core/internal/domain/usecase/ledger"
)

type noopLogger struct {
	level coreport.LogLevel
}

func (l *noopLogger) SetLevel(level coreport.LogLevel) { l.level = level }
func (l *noopLogger) GetLevel() coreport.LogLevel      { return l.level }
func (l *noopLogger) Debug(string, map[string]any)     {}
func (l *noopLogger) Info(string, map[string]any)      {}
func (l *noopLogger) Warn(string, map[string]any)      {}
func (l *noopLogger) Error(string, map[string]any)     {}
func (l *noopLogger) Flush() error                     { return nil }

type fakeLedger struct {
	confirmErr error
	findErr    error
	confirms   []ledger.ConfirmPaymentRequest
}

func (f *fakeLedger) ConfirmPayment(_ context.Context, req ledger.ConfirmPaymentRequest) (*entity.Transaction, error) {
	f.confirms = append(f.confirms, req)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &entity.Transaction{Status: entity.StatusCompleted}, nil
}

func (f *fakeLedger) FindByExternalRef(context.Context, string) (*entity.Transaction, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &entity.Transaction{Status: entity.StatusProcessing}, nil
}

var webhookCreds = gateway.Credentials{
	Payme: gateway.PaymeCredentials{MerchantID: "merchant-1", SecretKey: "payme-secret"},
	Click: gateway.ClickCredentials{ServiceID: 1001, SecretKey: "click-secret"},
	Uzum:  gateway.UzumCredentials{SecretKey: "uzum-secret"},
}

func newWebhookRouter(ld gateway.Ledger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(gateway.NewService(ld, webhookCreds, &noopLogger{}), &noopLogger{})
	router := gin.New()
	router.POST("/webhooks/payme", h.Payme)
	router.POST("/webhooks/click", h.Click)
	router.POST("/webhooks/uzum", h.Uzum)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func paymeAuth() map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte("merchant-1:payme-secret"))
	return map[string]string{"Authorization": "Basic " + token}
}

func TestWebhookPayme(t *testing.T) {
	performBody := gateway.PaymeRequest{
		ID:     7,
		Method: gateway.PaymePerform,
		Params: gateway.PaymeParams{ID: "payme-trx-1", Amount: json.Number("1300000")},
	}

	t.Run("Perform with valid auth settles and returns allow", func(t *testing.T) {
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/payme", performBody, paymeAuth())

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.PaymeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Result)
		assert.True(t, resp.Result.Allow)
		require.Len(t, ld.confirms, 1)
		assert.Equal(t, "payme-trx-1", ld.confirms[0].ProviderTransactionID)
		assert.True(t, ld.confirms[0].Success)
	})

	t.Run("Bad credentials return 401 with the payme envelope", func(t *testing.T) {
		ld := &fakeLedger{}
		headers := map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("merchant-1:wrong")),
		}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/payme", performBody, headers)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp gateway.PaymeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, gateway.PaymeErrInsufficientPrivileges, resp.Error.Code)
		assert.Empty(t, ld.confirms)
	})

	t.Run("State conflict stays 200 with an error envelope", func(t *testing.T) {
		ld := &fakeLedger{confirmErr: errs.NewStateConflictError("payme-trx-1", "cancelled", "confirm_payment")}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/payme", performBody, paymeAuth())

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.PaymeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, gateway.PaymeErrCannotPerform, resp.Error.Code)
	})

	t.Run("Malformed body stays 200 with an internal error envelope", func(t *testing.T) {
		router := newWebhookRouter(&fakeLedger{})
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payme", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.PaymeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, gateway.PaymeErrInternal, resp.Error.Code)
	})
}

func signedClick(action, errCode int) gateway.ClickRequest {
	req := gateway.ClickRequest{
		ClickTransID:    555001,
		MerchantTransID: "order-41",
		Amount:          json.Number("900000"),
		Action:          action,
		Error:           errCode,
		SignTime:        "2025-03-10 09:00:00",
	}
	payload := strconv.FormatInt(req.ClickTransID, 10) +
		strconv.FormatInt(webhookCreds.Click.ServiceID, 10) +
		webhookCreds.Click.SecretKey +
		req.MerchantTransID +
		req.Amount.String() +
		strconv.Itoa(req.Action) +
		req.SignTime
	sum := md5.Sum([]byte(payload))
	req.SignString = hex.EncodeToString(sum[:])
	return req
}

func TestWebhookClick(t *testing.T) {
	t.Run("Signed complete settles and returns success", func(t *testing.T) {
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/click", signedClick(gateway.ClickActionComplete, 0), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.ClickResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, gateway.ClickOK, resp.Error)
		require.Len(t, ld.confirms, 1)
		assert.Equal(t, "555001", ld.confirms[0].ProviderTransactionID)
	})

	t.Run("Tampered amount returns 401", func(t *testing.T) {
		body := signedClick(gateway.ClickActionComplete, 0)
		body.Amount = json.Number("1")
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/click", body, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp gateway.ClickResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, gateway.ClickErrSignCheckFailed, resp.Error)
		assert.Empty(t, ld.confirms)
	})

	t.Run("Prepare verifies without settling", func(t *testing.T) {
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/click", signedClick(gateway.ClickActionPrepare, 0), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.ClickResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, gateway.ClickOK, resp.Error)
		assert.Empty(t, ld.confirms)
	})
}

func signedUzum(status string) gateway.UzumRequest {
	req := gateway.UzumRequest{
		TransactionID: "uzum-trx-9",
		Status:        status,
		Amount:        json.Number("450000"),
		Timestamp:     1741597200,
	}
	payload := fmt.Sprintf(`{"transactionId":%q,"status":%q,"amount":%s,"timestamp":%d}`,
		req.TransactionID, req.Status, req.Amount.String(), req.Timestamp)
	mac := hmac.New(sha256.New, []byte(webhookCreds.Uzum.SecretKey))
	mac.Write([]byte(payload))
	req.Signature = hex.EncodeToString(mac.Sum(nil))
	return req
}

func TestWebhookUzum(t *testing.T) {
	t.Run("Signed PAID settles", func(t *testing.T) {
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/uzum", signedUzum(gateway.UzumStatusPaid), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.UzumResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, ld.confirms, 1)
		assert.True(t, ld.confirms[0].Success)
	})

	t.Run("Tampered status returns 401", func(t *testing.T) {
		body := signedUzum(gateway.UzumStatusPaid)
		body.Status = gateway.UzumStatusCancelled
		ld := &fakeLedger{}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/uzum", body, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp gateway.UzumResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Empty(t, ld.confirms)
	})

	t.Run("Ledger failure stays 200 with success false", func(t *testing.T) {
		ld := &fakeLedger{confirmErr: errs.ErrTransactionNotFound}
		rec := postJSON(t, newWebhookRouter(ld), "/webhooks/uzum", signedUzum(gateway.UzumStatusPaid), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp gateway.UzumResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	})
}
