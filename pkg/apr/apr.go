package apr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UndefinedAprError means a venue had no backing principal on any
// relevant day, so no meaningful rate exists. It is never coerced to
// 0% or infinity.
type UndefinedAprError struct {
	Venue string
}

func (e *UndefinedAprError) Error() string {
	if e.Venue == "" {
		return "APR is undefined: no backing principal"
	}
	return fmt.Sprintf("APR is undefined for %s: no backing principal", e.Venue)
}

// DayInput pairs one day's reward payout with the principal snapshot
// backing it, both in the same unit.
type DayInput struct {
	Reward    decimal.Decimal
	Principal decimal.Decimal
}

type Calculator struct {
	logger *zap.Logger
}

func NewCalculator(l *zap.Logger) *Calculator {
	return &Calculator{logger: l}
}

var daysPerYear = decimal.NewFromInt(365)

// DayApr annualizes one day's rate: (reward / principal) * 365.
func (c *Calculator) DayApr(venue string, in DayInput) (decimal.Decimal, error) {
	if in.Principal.IsZero() {
		return decimal.Zero, &UndefinedAprError{Venue: venue}
	}
	return in.Reward.Mul(daysPerYear).Div(in.Principal), nil
}

// EpochApr is the arithmetic mean of the per-day APRs over an epoch.
// Days with zero principal are excluded from the mean; at least one day
// must be defined. Principal fluctuates day to day, so this is not the
// same number as one rate computed from epoch-level sums.
func (c *Calculator) EpochApr(venue string, days []DayInput) (decimal.Decimal, error) {
	sum := decimal.Zero
	defined := 0
	for _, day := range days {
		dayApr, err := c.DayApr(venue, day)
		if err != nil {
			var undefinedErr *UndefinedAprError
			if errors.As(err, &undefinedErr) {
				continue
			}
			return decimal.Zero, err
		}
		sum = sum.Add(dayApr)
		defined++
	}

	if defined == 0 {
		return decimal.Zero, &UndefinedAprError{Venue: venue}
	}
	if defined < len(days) {
		c.logger.Sugar().Debugw("Excluded zero-principal days from epoch APR",
			zap.String("venue", venue),
			zap.Int("excluded", len(days)-defined),
		)
	}
	return sum.Div(decimal.NewFromInt(int64(defined))), nil
}

// Percentage converts a rate into its display form, rate * 100.
func Percentage(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(100))
}
