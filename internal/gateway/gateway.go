package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayoutRequest describes one salary disbursement. Reference must be
// deterministic per (teacher, period) so the downstream provider can
// deduplicate resubmissions.
type PayoutRequest struct {
	RecipientName    string
	RecipientBank    string
	RecipientAccount string
	RecipientEmail   string
	Amount           decimal.Decimal
	Currency         string
	Reference        string
	Description      string
}

// PayoutResult is the provider's acknowledgement of an accepted payout.
type PayoutResult struct {
	TransactionID string
	Status        string
}

// PaymentGateway submits salary payouts to an external provider.
type PaymentGateway interface {
	Submit(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}

// ErrorKind classifies gateway failures for retry decisions.
type ErrorKind int

const (
	// KindTransient covers network failures and provider 5xx responses.
	// These are safe to retry.
	KindTransient ErrorKind = iota
	// KindRejected covers validation failures and provider 4xx responses.
	// Retrying cannot succeed.
	KindRejected
)

// Error is a classified gateway failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payout %s: %v", e.describe(), e.Cause)
	}
	return fmt.Sprintf("payout %s: %s", e.describe(), e.Message)
}

// Unwrap exposes the underlying provider error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Transient reports whether a retry could succeed.
func (e *Error) Transient() bool {
	return e.Kind == KindTransient
}

func (e *Error) describe() string {
	if e.Kind == KindRejected {
		return "rejected"
	}
	return "failed"
}
