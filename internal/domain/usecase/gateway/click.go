package gateway

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// Click action codes
const (
	ClickActionPrepare  = 0
	ClickActionComplete = 1
)

// Click error codes returned in the envelope
const (
	ClickOK                      = 0
	ClickErrSignCheckFailed      = -1
	ClickErrIncorrectAmount      = -2
	ClickErrActionNotFound       = -3
	ClickErrTransactionNotFound  = -5
	ClickErrFailedUpdate         = -7
	ClickErrTransactionCancelled = -9
)

// ClickRequest is the webhook body Click delivers. click_trans_id is Click's
// own transaction identifier; merchant_trans_id echoes the reference we
// handed Click at payment initiation.
type ClickRequest struct {
	ClickTransID    int64       `json:"click_trans_id"`
	MerchantTransID string      `json:"merchant_trans_id"`
	Amount          json.Number `json:"amount"`
	Action          int         `json:"action"`
	Error           int         `json:"error"`
	ErrorNote       string      `json:"error_note,omitempty"`
	SignTime        string      `json:"sign_time"`
	SignString      string      `json:"sign_string"`
}

// ClickResponse is the envelope returned to Click. Click retries
// indefinitely on an unexpected shape.
type ClickResponse struct {
	Error     int    `json:"error"`
	ErrorNote string `json:"error_note"`
}

// ClickCredentials identifies the merchant service at Click
type ClickCredentials struct {
	ServiceID int64
	SecretKey string
}

// VerifyClickSign recomputes the keyed MD5 chain and compares it to the
// supplied signature. The digest covers, in order: click_trans_id,
// service_id, secret_key, merchant_trans_id, amount, action, sign_time.
func VerifyClickSign(creds ClickCredentials, req ClickRequest) bool {
	payload := strconv.FormatInt(req.ClickTransID, 10) +
		strconv.FormatInt(creds.ServiceID, 10) +
		creds.SecretKey +
		req.MerchantTransID +
		req.Amount.String() +
		strconv.Itoa(req.Action) +
		req.SignTime

	sum := md5.Sum([]byte(payload))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignString)) == 1
}

// ClickSuccess builds the success envelope
func ClickSuccess() ClickResponse {
	return ClickResponse{Error: ClickOK, ErrorNote: "Success"}
}

// ClickFailure builds a failure envelope with the given code
func ClickFailure(code int, note string) ClickResponse {
	return ClickResponse{Error: code, ErrorNote: note}
}
