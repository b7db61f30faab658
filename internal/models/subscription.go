package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingPeriod is the interval between a subscription's creation and its next payment.
const BillingPeriod = 30 * 24 * time.Hour

// Subscription represents a shared recurring cost split across a group's members.
type Subscription struct {
	// Key is the unique identifier for the subscription (UUID format).
	// It is the key of the "subscriptions" mapping and is not repeated in the value.
	Key string `json:"-"`

	// Name is the display name of the subscription (e.g., "Netflix").
	Name string `json:"name"`

	// GroupID is the chat group that owns this subscription.
	GroupID string `json:"group_id"`

	// TotalCost is the full recurring cost before splitting.
	TotalCost decimal.Decimal `json:"total_cost"`

	// Members is the ordered, duplicate-free list of member identifiers.
	Members []string `json:"members"`

	// CostPerPerson is TotalCost / len(Members), rounded to 2 decimal places.
	CostPerPerson decimal.Decimal `json:"cost_per_person"`

	// CreatedAt is when the subscription was created.
	CreatedAt time.Time `json:"created_at"`

	// NextPayment is CreatedAt + BillingPeriod.
	NextPayment time.Time `json:"next_payment"`
}

// HasMember reports whether memberID is in the member list.
func (s *Subscription) HasMember(memberID string) bool {
	for _, m := range s.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the subscription.
func (s *Subscription) Clone() *Subscription {
	c := *s
	c.Members = append([]string(nil), s.Members...)
	return &c
}
