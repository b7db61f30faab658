package models

import "time"

// PaymentRecord is one member's payment status for one subscription.
type PaymentRecord struct {
	// Paid is true once the member has marked their share as paid.
	Paid bool `json:"paid"`

	// LastPayment is when the member last marked a payment. Nil until the first one.
	LastPayment *time.Time `json:"last_payment"`
}

// PaymentKey builds the composite key of the "payments" mapping.
func PaymentKey(subscriptionKey, memberID string) string {
	return subscriptionKey + "_" + memberID
}

// Clone returns a deep copy of the record.
func (p *PaymentRecord) Clone() *PaymentRecord {
	c := *p
	if p.LastPayment != nil {
		t := *p.LastPayment
		c.LastPayment = &t
	}
	return &c
}
