package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/payment-verify/pkg/errors"
)

// PaymentRepo keeps payments in a map keyed by txnId. Tests use it in place of a real store.
type PaymentRepo struct {
	mu       *sync.RWMutex
	payments map[string]*payment.Payment
	err      error
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{
		mu:       new(sync.RWMutex),
		payments: make(map[string]*payment.Payment),
	}
}

// WithError makes every subsequent call fail with err wrapped as a store error.
func (r *PaymentRepo) WithError(err error) *PaymentRepo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

func (r *PaymentRepo) FindByTxnID(ctx context.Context, txnID string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, pkgerrors.NewStoreError("find payment", r.err)
	}

	p, ok := r.payments[txnID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(txnID)
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return pkgerrors.NewStoreError("insert payment", r.err)
	}

	if _, ok := r.payments[p.TxnID]; ok {
		return pkgerrors.NewDuplicateKeyError(nil)
	}
	cp := *p
	r.payments[p.TxnID] = &cp
	return nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, txnID string, status payment.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return pkgerrors.NewStoreError("update payment status", r.err)
	}

	p, ok := r.payments[txnID]
	if !ok {
		return pkgerrors.NewNotFoundError(txnID)
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

func (r *PaymentRepo) List(ctx context.Context) ([]*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, pkgerrors.NewStoreError("list payments", r.err)
	}

	out := make([]*payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PaymentRepo) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return pkgerrors.NewStoreError("ping", r.err)
	}
	return nil
}

// Put seeds a payment as-is, bypassing the duplicate check.
func (r *PaymentRepo) Put(p *payment.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.TxnID] = &cp
}

func (r *PaymentRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}
