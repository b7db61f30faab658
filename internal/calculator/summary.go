package calculator

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionForSummary is the minimal subscription data needed for a group summary.
type SubscriptionForSummary struct {
	Key           string
	Name          string
	TotalCost     decimal.Decimal
	CostPerPerson decimal.Decimal
	Members       []string
	NextPayment   time.Time
}

// PaidFunc reports whether a member has paid their share of a subscription.
type PaidFunc func(subscriptionKey, memberID string) bool

// SubscriptionSummary is the payment progress of one subscription.
type SubscriptionSummary struct {
	Key           string
	Name          string
	TotalCost     decimal.Decimal
	CostPerPerson decimal.Decimal
	MemberCount   int
	PaidCount     int
	Pending       []string // unpaid members, in member order
	Outstanding   decimal.Decimal
	NextPayment   time.Time
}

// AllPaid reports whether every member has paid.
func (s SubscriptionSummary) AllPaid() bool {
	return s.PaidCount == s.MemberCount
}

// GroupSummary aggregates every subscription of a group.
type GroupSummary struct {
	Subscriptions []SubscriptionSummary
	MonthlyTotal  decimal.Decimal // sum of total costs
	Outstanding   decimal.Decimal // sum of unpaid shares
}

// SummarizeGroup computes paid counts, pending members and totals.
// Subscriptions keep the order they are given in.
func SummarizeGroup(subs []SubscriptionForSummary, paid PaidFunc) GroupSummary {
	summary := GroupSummary{
		Subscriptions: make([]SubscriptionSummary, 0, len(subs)),
		MonthlyTotal:  decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for _, sub := range subs {
		s := SubscriptionSummary{
			Key:           sub.Key,
			Name:          sub.Name,
			TotalCost:     sub.TotalCost,
			CostPerPerson: sub.CostPerPerson,
			MemberCount:   len(sub.Members),
			NextPayment:   sub.NextPayment,
		}
		for _, member := range sub.Members {
			if paid(sub.Key, member) {
				s.PaidCount++
			} else {
				s.Pending = append(s.Pending, member)
			}
		}
		s.Outstanding = sub.CostPerPerson.Mul(decimal.NewFromInt(int64(len(s.Pending))))

		summary.MonthlyTotal = summary.MonthlyTotal.Add(sub.TotalCost)
		summary.Outstanding = summary.Outstanding.Add(s.Outstanding)
		summary.Subscriptions = append(summary.Subscriptions, s)
	}

	return summary
}
