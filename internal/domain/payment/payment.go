package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
)

// AutoVerifyPrefix marks transaction ids that are accepted without an external check.
const AutoVerifyPrefix = "UPI"

type Payment struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	Email     string    `db:"email" bson:"email" json:"email"`
	TxnID     string    `db:"txn_id" bson:"txnId" json:"txnId"`
	CardID    string    `db:"card_id" bson:"cardId" json:"cardId"`
	Status    Status    `db:"status" bson:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// NewPayment returns a pending payment stamped with a fresh id and creation time.
func NewPayment(email, txnID, cardID string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.NewString(),
		Email:     email,
		TxnID:     txnID,
		CardID:    cardID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Payment) IsVerified() bool {
	return p.Status == StatusVerified
}

// MarkVerified is a no-op on status for already verified payments but still bumps UpdatedAt.
func (p *Payment) MarkVerified() {
	p.Status = StatusVerified
	p.UpdatedAt = time.Now().UTC()
}

func QualifiesForAutoVerify(txnID string) bool {
	return strings.HasPrefix(txnID, AutoVerifyPrefix)
}
