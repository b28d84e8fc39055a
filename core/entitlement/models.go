package entitlement

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Entitlement is the locked/unlocked state of a subject for one learner.
// Exactly one row exists per (learner, subject) pair; rows are created
// lazily, locked, on first access.
type Entitlement struct {
	ID            string       `json:"id"`
	LearnerID     string       `json:"learner_id"`
	SubjectID     string       `json:"subject_id"`
	Locked        bool         `json:"locked"`
	PurchasedAt   null.Time    `json:"purchase_date,omitempty"`
	TransactionID null.String  `json:"transaction_id,omitempty"`
	OrderID       null.String  `json:"order_id,omitempty"`
	Amount        null.Float64 `json:"amount,omitempty"`
	CreatedAt     time.Time    `json:"-"`
	UpdatedAt     time.Time    `json:"-"`
}

// PurchaseMeta carries the purchase details recorded when a subject is
// unlocked individually.
type PurchaseMeta struct {
	TransactionID string
	OrderID       string
	Amount        float64
}
