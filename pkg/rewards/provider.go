package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

// RawEvent is a reward record as a distribution source produces it,
// before claim-window metadata is attached.
type RawEvent struct {
	Pkh     string
	Purpose types.Purpose
	Day     time.Time
	Amount  decimal.Decimal
}

type ProgramFilter string

const (
	ProgramFilter_All           ProgramFilter = "all"
	ProgramFilter_Governance    ProgramFilter = "governance"
	ProgramFilter_StabilityPool ProgramFilter = "stabilityPool"
	ProgramFilter_LiquidityPool ProgramFilter = "liquidityPool"
)

func (f ProgramFilter) Includes(p types.RewardProgram) bool {
	switch f {
	case ProgramFilter_Governance:
		return p == types.RewardProgram_Governance
	case ProgramFilter_StabilityPool:
		return p == types.RewardProgram_StabilityPool
	case ProgramFilter_LiquidityPool:
		return p == types.RewardProgram_LiquidityPool
	default:
		return true
	}
}

// EventProvider produces the reward events earned on one UTC day.
// Implementations may be called concurrently for different days.
type EventProvider interface {
	FetchRewardEvents(ctx context.Context, day time.Time, filter ProgramFilter) ([]RawEvent, error)
}

// ProviderFetchError wraps any failure to retrieve raw reward data. It is
// fatal to the whole request and passed to the caller unchanged.
type ProviderFetchError struct {
	Day time.Time
	Err error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("fetching reward events for %s: %v", e.Day.Format("2006-01-02"), e.Err)
}

func (e *ProviderFetchError) Unwrap() error {
	return e.Err
}
