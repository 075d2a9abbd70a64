package application

import (
	"context"
	"fmt"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/payment-verify/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MsgMissingFields   = "Missing required fields"
	MsgAlreadyVerified = "Transaction already verified earlier."
	MsgVerified        = "Payment verified"
	MsgNotAutoVerified = "Payment could not be verified automatically."
	MsgMarkedVerified  = "Payment marked as verified"
	MsgTxnNotFound     = "Txn not found"
)

const DefaultStoreTimeout = 10 * time.Second

type VerifyPaymentInput struct {
	Email  string `json:"email"`
	TxnID  string `json:"txnId"`
	CardID string `json:"cardId"`
}

func (in VerifyPaymentInput) Validate() error {
	if in.Email == "" || in.TxnID == "" || in.CardID == "" {
		return pkgerrors.NewValidationError(MsgMissingFields)
	}
	return nil
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ServiceOptions struct {
	// StrictDuplicateCheck makes a resubmitted txnId report failure while the stored record is still pending.
	StrictDuplicateCheck bool
	StoreTimeout         time.Duration
	Publishers           []EventPublisher
	Recorder             OutcomeRecorder
}

type PaymentService struct {
	store        PaymentStore
	strictDup    bool
	storeTimeout time.Duration
	publishers   []EventPublisher
	recorder     OutcomeRecorder
}

func NewPaymentService(store PaymentStore, opts ServiceOptions) *PaymentService {
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &PaymentService{
		store:        store,
		strictDup:    opts.StrictDuplicateCheck,
		storeTimeout: timeout,
		publishers:   opts.Publishers,
		recorder:     opts.Recorder,
	}
}

// Verify records a payment claim and applies the auto-verification rule.
// A nil error with Result.Success == false means the payment was stored but left pending.
func (s *PaymentService) Verify(ctx context.Context, in VerifyPaymentInput) (*Result, error) {
	if err := in.Validate(); err != nil {
		s.observe(Outcome_Invalid)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.store.FindByTxnID(ctx, in.TxnID)
	if err == nil {
		return s.duplicateResult(existing), nil
	}
	if !pkgerrors.IsNotFoundError(err) {
		s.observe(Outcome_Error)
		return nil, fmt.Errorf("find payment txnID = %s: %w", in.TxnID, err)
	}

	p := payment.NewPayment(in.Email, in.TxnID, in.CardID)
	if err := s.store.Insert(ctx, p); err != nil {
		if !pkgerrors.IsDuplicateKeyError(err) {
			s.observe(Outcome_Error)
			return nil, fmt.Errorf("insert payment txnID = %s: %w", in.TxnID, err)
		}
		// a concurrent request created it between lookup and insert
		existing, err = s.store.FindByTxnID(ctx, in.TxnID)
		if err != nil {
			s.observe(Outcome_Error)
			return nil, fmt.Errorf("reload payment txnID = %s: %w", in.TxnID, err)
		}
		return s.duplicateResult(existing), nil
	}
	s.publish(ctx, payment.NewEvent(payment.EventType_PaymentCreated, p))

	if !payment.QualifiesForAutoVerify(p.TxnID) {
		logrus.WithFields(logrus.Fields{
			"txnID":     p.TxnID,
			"paymentID": p.ID,
		}).Info("PAYMENT:PENDING")
		s.observe(Outcome_Pending)
		return &Result{Success: false, Message: MsgNotAutoVerified}, nil
	}

	p.MarkVerified()
	if err := s.store.UpdateStatus(ctx, p.TxnID, p.Status, p.UpdatedAt); err != nil {
		s.observe(Outcome_Error)
		return nil, fmt.Errorf("update status txnID = %s: %w", p.TxnID, err)
	}
	s.publish(ctx, payment.NewEvent(payment.EventType_PaymentVerified, p))

	logrus.WithFields(logrus.Fields{
		"txnID":     p.TxnID,
		"paymentID": p.ID,
	}).Info("PAYMENT:VERIFIED")
	s.observe(Outcome_Verified)
	return &Result{Success: true, Message: MsgVerified}, nil
}

func (s *PaymentService) duplicateResult(existing *payment.Payment) *Result {
	s.observe(Outcome_Duplicate)
	logrus.WithFields(logrus.Fields{
		"txnID":  existing.TxnID,
		"status": existing.Status,
	}).Info("PAYMENT:DUPLICATE")

	if s.strictDup && !existing.IsVerified() {
		return &Result{Success: false, Message: MsgNotAutoVerified}
	}
	return &Result{Success: true, Message: MsgAlreadyVerified}
}

// List returns every payment, newest first.
func (s *PaymentService) List(ctx context.Context) ([]*payment.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	payments, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ManualVerify force-sets the payment to verified. Repeating it is harmless.
func (s *PaymentService) ManualVerify(ctx context.Context, txnID string) (*Result, error) {
	if txnID == "" {
		s.observe(Outcome_NotFound)
		return nil, pkgerrors.NewNotFoundError(txnID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	p, err := s.store.FindByTxnID(ctx, txnID)
	if err != nil {
		if pkgerrors.IsNotFoundError(err) {
			s.observe(Outcome_NotFound)
			return nil, err
		}
		s.observe(Outcome_Error)
		return nil, fmt.Errorf("find payment txnID = %s: %w", txnID, err)
	}

	p.MarkVerified()
	if err := s.store.UpdateStatus(ctx, p.TxnID, p.Status, p.UpdatedAt); err != nil {
		if pkgerrors.IsNotFoundError(err) {
			s.observe(Outcome_NotFound)
			return nil, err
		}
		s.observe(Outcome_Error)
		return nil, fmt.Errorf("update status txnID = %s: %w", txnID, err)
	}
	s.publish(ctx, payment.NewEvent(payment.EventType_PaymentVerified, p))

	logrus.WithFields(logrus.Fields{
		"txnID":     p.TxnID,
		"paymentID": p.ID,
	}).Info("PAYMENT:MANUALLY_VERIFIED")
	s.observe(Outcome_Manual)
	return &Result{Success: true, Message: MsgMarkedVerified}, nil
}

func (s *PaymentService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *PaymentService) publish(ctx context.Context, ev *payment.Event) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"eventID": ev.ID,
				"type":    ev.Type,
				"txnID":   ev.TxnID,
			}).Errorf("EVENT:PUBLISH_FAILED %v", err)
		}
	}
}

func (s *PaymentService) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveVerification(outcome)
	}
}
