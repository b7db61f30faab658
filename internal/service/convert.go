package service

import (
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/subsplit/internal/calculator"
	"github.com/mmynk/subsplit/internal/ledger"
	"github.com/mmynk/subsplit/internal/models"
	"github.com/mmynk/subsplit/pkg/api"
)

// parseCost parses a decimal amount like "15.99".
func parseCost(s string) (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid cost %q: must be a number", s)
	}
	return cost, nil
}

// toConnectError maps ledger errors to Connect codes.
// Anything that is neither NotFound nor InvalidInput is a persistence failure.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toProtoSubscription(sub *models.Subscription) *api.Subscription {
	return &api.Subscription{
		Key:           sub.Key,
		Name:          sub.Name,
		GroupID:       sub.GroupID,
		TotalCost:     sub.TotalCost.StringFixed(calculator.CentPlaces),
		CostPerPerson: sub.CostPerPerson.StringFixed(calculator.CentPlaces),
		Members:       sub.Members,
		CreatedAt:     sub.CreatedAt,
		NextPayment:   sub.NextPayment,
	}
}

func toProtoDue(due ledger.Due) *api.Due {
	var lastPayment *time.Time
	if due.LastPayment != nil {
		t := *due.LastPayment
		lastPayment = &t
	}
	return &api.Due{
		SubscriptionKey: due.SubscriptionKey,
		Subscription:    due.Subscription,
		Amount:          due.Amount.StringFixed(calculator.CentPlaces),
		Paid:            due.Paid,
		LastPayment:     lastPayment,
		NextPayment:     due.NextPayment,
	}
}

func toProtoSummary(s calculator.SubscriptionSummary) *api.SubscriptionSummary {
	return &api.SubscriptionSummary{
		Key:           s.Key,
		Name:          s.Name,
		TotalCost:     s.TotalCost.StringFixed(calculator.CentPlaces),
		CostPerPerson: s.CostPerPerson.StringFixed(calculator.CentPlaces),
		MemberCount:   int32(s.MemberCount),
		PaidCount:     int32(s.PaidCount),
		AllPaid:       s.AllPaid(),
		Pending:       s.Pending,
		Outstanding:   s.Outstanding.StringFixed(calculator.CentPlaces),
		NextPayment:   s.NextPayment,
	}
}
