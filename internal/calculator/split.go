package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places a share is rounded to.
const CentPlaces = 2

var (
	ErrNoMembers   = errors.New("must have at least one member")
	ErrNonPositive  = errors.New("total cost must be greater than zero")
)

// EvenSplit computes each member's share of total.
// The share is total / members rounded half away from zero to CentPlaces.
func EvenSplit(total decimal.Decimal, members int) (decimal.Decimal, error) {
	if members <= 0 {
		return decimal.Zero, ErrNoMembers
	}
	if !total.IsPositive() {
		return decimal.Zero, ErrNonPositive
	}
	return total.Div(decimal.NewFromInt(int64(members))).Round(CentPlaces), nil
}

// RoundingDrift returns share*members - total, the amount the rounded shares
// over- or under-collect. Its magnitude never exceeds members * 0.005.
func RoundingDrift(total, share decimal.Decimal, members int) decimal.Decimal {
	return share.Mul(decimal.NewFromInt(int64(members))).Sub(total)
}
