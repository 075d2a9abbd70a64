package pkgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetErrorCodeThroughWrapping(t *testing.T) {
	base := NewDuplicateKeyError(errors.New("pq: duplicate key value"))
	wrapped := fmt.Errorf("insert payment: %w", base)

	assert.Equal(t, CodeDuplicateKey, GetErrorCode(wrapped))
	assert.True(t, IsDuplicateKeyError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
}

func TestSentinelMatchesByCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("UPI1"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStore)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[-1001] missing email", NewValidationError("missing email").Error())

	storeErr := NewStoreError("find payment", errors.New("conn refused"))
	assert.Equal(t, "[-1004] find payment: conn refused", storeErr.Error())
	assert.Equal(t, "conn refused", errors.Unwrap(storeErr).Error())
}
