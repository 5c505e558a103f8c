package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Uzum webhook statuses
const (
	UzumStatusPaid      = "PAID"
	UzumStatusCancelled = "CANCELLED"
	UzumStatusFailed    = "FAILED"
)

// UzumRequest is the webhook body Uzum delivers. transactionId is Uzum's own
// transaction identifier.
type UzumRequest struct {
	TransactionID string      `json:"transactionId"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Timestamp     int64       `json:"timestamp"`
	Signature     string      `json:"signature"`
}

// UzumResponse is the envelope returned to Uzum
type UzumResponse struct {
	Success bool `json:"success"`
}

// UzumCredentials is the shared HMAC secret
type UzumCredentials struct {
	SecretKey string
}

// uzumCanonicalPayload renders the signed fields as canonical JSON: fixed
// key order, no whitespace, amount exactly as transmitted.
func uzumCanonicalPayload(req UzumRequest) []byte {
	return []byte(fmt.Sprintf(`{"transactionId":%q,"status":%q,"amount":%s,"timestamp":%d}`,
		req.TransactionID, req.Status, req.Amount.String(), req.Timestamp))
}

// VerifyUzumSignature checks the HMAC-SHA256 signature over the canonical
// JSON encoding of the signed fields.
func VerifyUzumSignature(creds UzumCredentials, req UzumRequest) bool {
	mac := hmac.New(sha256.New, []byte(creds.SecretKey))
	mac.Write(uzumCanonicalPayload(req))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(req.Signature)) == 1
}
