package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrAmountMismatch is returned when custom split amounts do not add up to
// the bill amount.
var ErrAmountMismatch = errors.New("split amounts do not match bill amount")

// centPlaces is the precision shares are rounded to.
const centPlaces = 2

// EqualShares divides total into n shares.
//
// Each share is total/n truncated to cents. The cents left over are handed
// out one at a time from the first share onward, so the shares always sum
// to total: 100 / 3 gives 33.34, 33.33, 33.33.
func EqualShares(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("total cannot be negative")
	}

	base := total.Div(decimal.NewFromInt(int64(n))).Truncate(centPlaces)
	remainder := total.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	cent := decimal.New(1, -centPlaces)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
		if remainder.GreaterThanOrEqual(cent) {
			shares[i] = shares[i].Add(cent)
			remainder = remainder.Sub(cent)
		}
	}
	return shares, nil
}

// ValidateCustomSplit checks that amounts sum exactly to total.
func ValidateCustomSplit(total decimal.Decimal, amounts []decimal.Decimal) error {
	if len(amounts) == 0 {
		return fmt.Errorf("must have at least one participant")
	}
	sum := decimal.Zero
	for _, a := range amounts {
		if a.IsNegative() {
			return fmt.Errorf("split amount cannot be negative: %s", a)
		}
		sum = sum.Add(a)
	}
	if !sum.Equal(total) {
		return fmt.Errorf("%w: splits sum to %s, bill is %s", ErrAmountMismatch, sum, total)
	}
	return nil
}
