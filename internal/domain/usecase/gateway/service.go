package gateway

import (
	"context"
	"strconv"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/usecase/ledger"
)

// Ledger is the slice of the transaction service the adapter drives
type Ledger interface {
	ConfirmPayment(ctx context.Context, req ledger.ConfirmPaymentRequest) (*entity.Transaction, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error)
}

// Credentials bundles the per-provider webhook secrets
type Credentials struct {
	Payme PaymeCredentials
	Click ClickCredentials
	Uzum  UzumCredentials
}

// Service verifies provider webhooks and maps external transaction
// identifiers onto the ledger. Verification fully precedes any state
// mutation; an authentication failure reveals nothing about which part of
// the signature failed.
type Service struct {
	ledger Ledger
	creds  Credentials
	logger coreport.Logger
}

// NewService creates a new gateway service
func NewService(ledger Ledger, creds Credentials, logger coreport.Logger) *Service {
	return &Service{
		ledger: ledger,
		creds:  creds,
		logger: logger,
	}
}

// HandlePayme processes one Payme JSON-RPC webhook. The returned error is
// non-nil only for authentication failures; every other condition is
// expressed inside the Payme envelope so Payme stops retrying.
func (s *Service) HandlePayme(ctx context.Context, authHeader string, req PaymeRequest) (PaymeResponse, error) {
	if !VerifyPaymeAuth(s.creds.Payme, authHeader) {
		s.logger.Warn("Payme webhook rejected", map[string]any{"method": req.Method})
		return PaymeFailure(PaymeErrInsufficientPrivileges, "Insufficient privileges"), errs.ErrAuthentication
	}

	switch req.Method {
	case PaymeCheckPerform:
		if _, err := s.ledger.FindByExternalRef(ctx, req.Params.ID); err != nil {
			if errs.IsNotFoundError(err) {
				return PaymeFailure(PaymeErrTransactionNotFound, "Transaction not found"), nil
			}
			return PaymeFailure(PaymeErrInternal, "Internal error"), nil
		}
		return PaymeSuccess(), nil

	case PaymePerform, PaymeCancel:
		_, err := s.ledger.ConfirmPayment(ctx, ledger.ConfirmPaymentRequest{
			ProviderTransactionID: req.Params.ID,
			Provider:              entity.ProviderPayme,
			Success:               req.Method == PaymePerform,
			FailureReason:         "cancelled by payme",
			RawPayload: map[string]any{
				"rpc_id":   req.ID,
				"method":   req.Method,
				"amount":   req.Params.Amount.String(),
				"time":     req.Params.Time,
				"order_id": req.Params.Account.OrderID,
			},
		})
		if err != nil {
			return s.paymeError(req, err), nil
		}
		return PaymeSuccess(), nil
	}

	return PaymeFailure(PaymeErrCannotPerform, "Unsupported method"), nil
}

func (s *Service) paymeError(req PaymeRequest, err error) PaymeResponse {
	s.logger.Warn("Payme webhook not applied", map[string]any{
		"method":       req.Method,
		"provider_ref": req.Params.ID,
		"error":        err.Error(),
	})
	switch {
	case errs.IsNotFoundError(err):
		return PaymeFailure(PaymeErrTransactionNotFound, "Transaction not found")
	case errs.IsStateConflictError(err):
		return PaymeFailure(PaymeErrCannotPerform, "Unable to perform operation")
	default:
		return PaymeFailure(PaymeErrInternal, "Internal error")
	}
}

// HandleClick processes one Click webhook. The returned error is non-nil
// only for signature failures.
func (s *Service) HandleClick(ctx context.Context, req ClickRequest) (ClickResponse, error) {
	if !VerifyClickSign(s.creds.Click, req) {
		s.logger.Warn("Click webhook rejected", map[string]any{
			"click_trans_id": req.ClickTransID,
		})
		return ClickFailure(ClickErrSignCheckFailed, "SIGN CHECK FAILED"), errs.ErrAuthentication
	}

	providerRef := strconv.FormatInt(req.ClickTransID, 10)

	// The prepare leg only announces intent; settlement happens on complete.
	if req.Action == ClickActionPrepare {
		if _, err := s.ledger.FindByExternalRef(ctx, providerRef); err != nil {
			if errs.IsNotFoundError(err) {
				return ClickFailure(ClickErrTransactionNotFound, "Transaction not found"), nil
			}
			return ClickFailure(ClickErrFailedUpdate, "Failed to process"), nil
		}
		return ClickSuccess(), nil
	}
	if req.Action != ClickActionComplete {
		return ClickFailure(ClickErrActionNotFound, "Action not found"), nil
	}

	// Click signals success only with error code zero
	_, err := s.ledger.ConfirmPayment(ctx, ledger.ConfirmPaymentRequest{
		ProviderTransactionID: providerRef,
		Provider:              entity.ProviderClick,
		Success:               req.Error == 0,
		FailureReason:         req.ErrorNote,
		RawPayload: map[string]any{
			"merchant_trans_id": req.MerchantTransID,
			"amount":            req.Amount.String(),
			"action":            req.Action,
			"error":             req.Error,
			"sign_time":         req.SignTime,
		},
	})
	if err != nil {
		s.logger.Warn("Click webhook not applied", map[string]any{
			"click_trans_id": req.ClickTransID,
			"error":          err.Error(),
		})
		switch {
		case errs.IsNotFoundError(err):
			return ClickFailure(ClickErrTransactionNotFound, "Transaction not found"), nil
		case errs.IsStateConflictError(err):
			return ClickFailure(ClickErrTransactionCancelled, "Transaction cancelled"), nil
		default:
			return ClickFailure(ClickErrFailedUpdate, "Failed to process"), nil
		}
	}
	return ClickSuccess(), nil
}

// HandleUzum processes one Uzum webhook. The returned error is non-nil only
// for signature failures.
func (s *Service) HandleUzum(ctx context.Context, req UzumRequest) (UzumResponse, error) {
	if !VerifyUzumSignature(s.creds.Uzum, req) {
		s.logger.Warn("Uzum webhook rejected", map[string]any{
			"transaction_id": req.TransactionID,
		})
		return UzumResponse{Success: false}, errs.ErrAuthentication
	}

	failureReason := ""
	switch req.Status {
	case UzumStatusCancelled:
		failureReason = "cancelled by uzum"
	case UzumStatusFailed:
		failureReason = "failed at uzum"
	}

	_, err := s.ledger.ConfirmPayment(ctx, ledger.ConfirmPaymentRequest{
		ProviderTransactionID: req.TransactionID,
		Provider:              entity.ProviderUzum,
		Success:               req.Status == UzumStatusPaid,
		FailureReason:         failureReason,
		RawPayload: map[string]any{
			"status":    req.Status,
			"amount":    req.Amount.String(),
			"timestamp": req.Timestamp,
		},
	})
	if err != nil {
		s.logger.Warn("Uzum webhook not applied", map[string]any{
			"transaction_id": req.TransactionID,
			"error":          err.Error(),
		})
		return UzumResponse{Success: false}, nil
	}
	return UzumResponse{Success: true}, nil
}
