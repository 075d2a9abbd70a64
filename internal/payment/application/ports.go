package application

import (
	"context"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
)

// PaymentStore is implemented by every persistence backend.
// FindByTxnID and UpdateStatus return a pkgerrors NotFound error for unknown ids;
// Insert returns a pkgerrors DuplicateKey error when the txnId already exists.
type PaymentStore interface {
	FindByTxnID(ctx context.Context, txnID string) (*payment.Payment, error)
	Insert(ctx context.Context, p *payment.Payment) error
	UpdateStatus(ctx context.Context, txnID string, status payment.Status, updatedAt time.Time) error
	List(ctx context.Context) ([]*payment.Payment, error)
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev *payment.Event) error
}

type OutcomeRecorder interface {
	ObserveVerification(outcome string)
}

const (
	Outcome_Verified  = "verified"
	Outcome_Pending   = "pending"
	Outcome_Duplicate = "duplicate"
	Outcome_Invalid   = "invalid"
	Outcome_Error     = "error"
	Outcome_Manual    = "manual"
	Outcome_NotFound  = "not_found"
)
