package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type TxFunc[T any] func(ctx context.Context, tx *sqlx.Tx) (T, error)

// TxClosure runs fn inside a transaction at the given isolation level.
// It commits when fn returns nil and rolls back on error or panic.
func TxClosure[T any](ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn TxFunc[T]) (res T, err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w, rollback: %v", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}
