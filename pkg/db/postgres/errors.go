package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// unique_violation
const ErrDuplicateCode pq.ErrorCode = "23505"

func IsDuplicateKeyErr(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == ErrDuplicateCode
	}
	return false
}
