package gateway

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Payme JSON-RPC method names the back office reacts to
const (
	PaymeCheckPerform = "CheckPerformTransaction"
	PaymePerform      = "PerformTransaction"
	PaymeCancel       = "CancelTransaction"
)

// Payme JSON-RPC error codes
const (
	PaymeErrInsufficientPrivileges = -32504
	PaymeErrTransactionNotFound    = -31003
	PaymeErrCannotPerform          = -31008
	PaymeErrInternal               = -32400
)

// PaymeAccount carries the merchant-side keys Payme echoes back
type PaymeAccount struct {
	OrderID string `json:"order_id,omitempty"`
}

// PaymeParams is the params object of a Payme JSON-RPC call. The id field is
// Payme's own transaction identifier.
type PaymeParams struct {
	ID      string       `json:"id"`
	Amount  json.Number  `json:"amount,omitempty"`
	Time    int64        `json:"time,omitempty"`
	Account PaymeAccount `json:"account"`
}

// PaymeRequest is the JSON-RPC envelope Payme delivers webhooks in
type PaymeRequest struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params PaymeParams `json:"params"`
}

// PaymeAllow is the success result payload
type PaymeAllow struct {
	Allow bool `json:"allow"`
}

// PaymeError is the JSON-RPC error payload
type PaymeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PaymeResponse is the JSON-RPC envelope returned to Payme. Payme retries
// indefinitely on an unexpected shape, so the envelope must be exact.
type PaymeResponse struct {
	Result *PaymeAllow `json:"result,omitempty"`
	Error  *PaymeError `json:"error,omitempty"`
}

// PaymeCredentials is the shared merchant secret for webhook authentication
type PaymeCredentials struct {
	MerchantID string
	SecretKey  string
}

// VerifyPaymeAuth checks the Basic authorization header against
// base64(merchantId:secretKey) in constant time.
func VerifyPaymeAuth(creds PaymeCredentials, authHeader string) bool {
	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		return false
	}
	supplied := strings.TrimPrefix(authHeader, prefix)
	expected := base64.StdEncoding.EncodeToString([]byte(creds.MerchantID + ":" + creds.SecretKey))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}

// PaymeSuccess builds the allow envelope
func PaymeSuccess() PaymeResponse {
	return PaymeResponse{Result: &PaymeAllow{Allow: true}}
}

// PaymeFailure builds an error envelope with the given code
func PaymeFailure(code int, message string) PaymeResponse {
	return PaymeResponse{Error: &PaymeError{Code: code, Message: message}}
}
