// Package api defines the subsplit.v1 RPC messages.
//
// Messages are plain Go structs carried as JSON by Codec. Amounts travel as
// decimal strings ("15.99") so no precision is lost between services.
package api

import "time"

// Subscription is a shared subscription as seen by the command layer.
type Subscription struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	GroupID       string    `json:"group_id"`
	TotalCost     string    `json:"total_cost"`
	CostPerPerson string    `json:"cost_per_person"`
	Members       []string  `json:"members"`
	CreatedAt     time.Time `json:"created_at"`
	NextPayment   time.Time `json:"next_payment"`
}

// Due is one member's share of one subscription.
type Due struct {
	SubscriptionKey string     `json:"subscription_key"`
	Subscription    string     `json:"subscription"`
	Amount          string     `json:"amount"`
	Paid            bool       `json:"paid"`
	LastPayment     *time.Time `json:"last_payment,omitempty"`
	NextPayment     time.Time  `json:"next_payment"`
}

// SubscriptionSummary is the payment progress of one subscription.
type SubscriptionSummary struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	TotalCost     string    `json:"total_cost"`
	CostPerPerson string    `json:"cost_per_person"`
	MemberCount   int32     `json:"member_count"`
	PaidCount     int32     `json:"paid_count"`
	AllPaid       bool      `json:"all_paid"`
	Pending       []string  `json:"pending,omitempty"`
	Outstanding   string    `json:"outstanding"`
	NextPayment   time.Time `json:"next_payment"`
}

type CreateSubscriptionRequest struct {
	GroupID   string   `json:"group_id"`
	Name      string   `json:"name"`
	TotalCost string   `json:"total_cost"`
	Members   []string `json:"members"`
}

type CreateSubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type ListSubscriptionsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSubscriptionsResponse struct {
	Subscriptions []*Subscription `json:"subscriptions"`
}

type GetMemberDuesRequest struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
}

type GetMemberDuesResponse struct {
	Dues []*Due `json:"dues"`
}

type MarkPaymentRequest struct {
	SubscriptionKey string `json:"subscription_key"`
	MemberID        string `json:"member_id"`
	// Paid defaults to true when omitted.
	Paid *bool `json:"paid,omitempty"`
}

// GetPaid returns the requested paid flag, defaulting to true.
func (x *MarkPaymentRequest) GetPaid() bool {
	if x == nil || x.Paid == nil {
		return true
	}
	return *x.Paid
}

type MarkPaymentResponse struct {
	Due *Due `json:"due"`
}

type DeleteSubscriptionRequest struct {
	SubscriptionKey string `json:"subscription_key"`
	GroupID         string `json:"group_id"`
}

type DeleteSubscriptionResponse struct{}

type FindSubscriptionRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type FindSubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type GetGroupSummaryRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupSummaryResponse struct {
	Subscriptions []*SubscriptionSummary `json:"subscriptions"`
	MonthlyTotal  string                 `json:"monthly_total"`
	Outstanding   string                 `json:"outstanding"`
}

type IssueTokenRequest struct {
	APIKey   string `json:"api_key"`
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
}

type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
