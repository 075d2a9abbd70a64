package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	"github.com/k-code-yt/payment-verify/pkg/db/postgres"
	pkgerrors "github.com/k-code-yt/payment-verify/pkg/errors"
)

const paymentColumns = "id, email, txn_id, card_id, status, created_at, updated_at"

type PaymentRepo struct {
	repo      *sqlx.DB
	tableName string
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo {
	return &PaymentRepo{
		repo:      db,
		tableName: postgres.DBTableName_Payments,
	}
}

func (r *PaymentRepo) FindByTxnID(ctx context.Context, txnID string) (*payment.Payment, error) {
	p := &payment.Payment{}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE txn_id = $1", paymentColumns, r.tableName)
	err := r.repo.GetContext(ctx, p, q, txnID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError(txnID)
		}
		return nil, pkgerrors.NewStoreError("find payment", err)
	}
	return p, nil
}

func (r *PaymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)", r.tableName, paymentColumns)
	_, err := r.repo.ExecContext(ctx, q, p.ID, p.Email, p.TxnID, p.CardID, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if postgres.IsDuplicateKeyErr(err) {
			return pkgerrors.NewDuplicateKeyError(err)
		}
		return pkgerrors.NewStoreError("insert payment", err)
	}
	return nil
}

// UpdateStatus locks the row before writing so concurrent manual verifies serialize.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, txnID string, status payment.Status, updatedAt time.Time) error {
	_, err := postgres.TxClosure(ctx, r.repo, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		var id string
		q := fmt.Sprintf("SELECT id FROM %s WHERE txn_id = $1 FOR UPDATE", r.tableName)
		if err := tx.GetContext(ctx, &id, q, txnID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", pkgerrors.NewNotFoundError(txnID)
			}
			return "", pkgerrors.NewStoreError("lock payment", err)
		}

		q = fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = $2 WHERE id = $3`, r.tableName)
		if _, err := tx.ExecContext(ctx, q, status, updatedAt, id); err != nil {
			return "", pkgerrors.NewStoreError("update payment status", err)
		}
		return id, nil
	})
	if err != nil && pkgerrors.GetErrorCode(err) == pkgerrors.CodeUnknown {
		return pkgerrors.NewStoreError("update payment status", err)
	}
	return err
}

func (r *PaymentRepo) List(ctx context.Context) ([]*payment.Payment, error) {
	payments := []*payment.Payment{}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC, id DESC", paymentColumns, r.tableName)
	if err := r.repo.SelectContext(ctx, &payments, q); err != nil {
		return nil, pkgerrors.NewStoreError("list payments", err)
	}
	return payments, nil
}

func (r *PaymentRepo) Ping(ctx context.Context) error {
	if err := r.repo.PingContext(ctx); err != nil {
		return pkgerrors.NewStoreError("ping postgres", err)
	}
	return nil
}
