package distribution

import (
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

// LpProgramLastDay is the last snapshot day of the LP reward program,
// epoch 421's closing day. DEXes run their own LP incentives since.
var LpProgramLastDay = epochs.Day(2023, 7, 4)

// Per-epoch INDY emissions as voted by governance. Each amount applies
// from the named epoch until the next change.
var (
	spIndyInitial      = decimal.NewFromInt(28768)
	spIndyFromEpoch447 = decimal.NewFromInt(22431)
	spIndyFromEpoch497 = decimal.RequireFromString("18664.35")
	spIndyFromEpoch524 = decimal.RequireFromString("19664.35")
	spIndyFromEpoch526 = decimal.RequireFromString("21189.77")

	govIndyInitial      = decimal.NewFromInt(2398)
	govIndyFromEpoch488 = decimal.RequireFromString("6046.11")
	govIndyFromEpoch529 = decimal.RequireFromString("5046.33")

	lpIndyPerEpoch = decimal.NewFromInt(4795)
)

// Config carries the emission overrides and the iAsset launch calendar.
// The zero value follows the voted schedules but knows no iAssets; use
// DefaultConfig for the real launch dates.
type Config struct {
	// Overrides replace the scheduled per-epoch amounts when set.
	SpIndyOverride  *decimal.Decimal
	LpIndyOverride  *decimal.Decimal
	GovIndyOverride *decimal.Decimal

	// LaunchDates maps each iAsset to its first snapshot day. An iAsset
	// without an entry never activates.
	LaunchDates map[types.IAsset]time.Time
}

func DefaultConfig() Config {
	return Config{
		LaunchDates: map[types.IAsset]time.Time{
			types.IAsset_iUSD: epochs.Day(2022, 11, 21), // Epoch 377's first day.
			types.IAsset_iBTC: epochs.Day(2022, 11, 21),
			types.IAsset_iETH: epochs.Day(2023, 1, 6), // Epoch 386's second day.
		},
	}
}

// SpEpochIndy returns the INDY emitted to stability pool stakers over
// an epoch.
func (c Config) SpEpochIndy(epoch int64) decimal.Decimal {
	if c.SpIndyOverride != nil {
		return *c.SpIndyOverride
	}
	switch {
	case epoch >= 526:
		return spIndyFromEpoch526
	case epoch >= 524:
		return spIndyFromEpoch524
	case epoch >= 497:
		return spIndyFromEpoch497
	case epoch >= 447:
		return spIndyFromEpoch447
	default:
		return spIndyInitial
	}
}

// GovEpochIndy returns the INDY emitted to INDY governance stakers over
// an epoch.
func (c Config) GovEpochIndy(epoch int64) decimal.Decimal {
	if c.GovIndyOverride != nil {
		return *c.GovIndyOverride
	}
	switch {
	case epoch >= 529:
		return govIndyFromEpoch529
	case epoch >= 488:
		return govIndyFromEpoch488
	default:
		return govIndyInitial
	}
}

// LpEpochIndy returns the INDY emitted to LP token stakers over an
// epoch. The amount never changed while the program ran.
func (c Config) LpEpochIndy(epoch int64) decimal.Decimal {
	if c.LpIndyOverride != nil {
		return *c.LpIndyOverride
	}
	return lpIndyPerEpoch
}

// ActiveIAssets returns the iAssets already launched on a day, in
// canonical order.
func (c Config) ActiveIAssets(day time.Time) []types.IAsset {
	day = epochs.Midnight(day)
	out := make([]types.IAsset, 0, len(c.LaunchDates))
	for _, iasset := range types.AllIAssets() {
		launch, ok := c.LaunchDates[iasset]
		if ok && !launch.After(day) {
			out = append(out, iasset)
		}
	}
	return out
}

// NewIAssets returns the active iAssets less than six epochs old on a
// day. New pools are weighted by volatility until enough history exists.
func (c Config) NewIAssets(cal *epochs.Calendar, day time.Time) map[types.IAsset]bool {
	epoch := cal.EpochOf(day)
	out := make(map[types.IAsset]bool)
	for _, iasset := range c.ActiveIAssets(day) {
		if epoch < cal.EpochOf(c.LaunchDates[iasset])+6 {
			out[iasset] = true
		}
	}
	return out
}

// IsLaunchDay reports whether a day is an iAsset's first snapshot day.
func (c Config) IsLaunchDay(iasset types.IAsset, day time.Time) bool {
	launch, ok := c.LaunchDates[iasset]
	return ok && launch.Equal(epochs.Midnight(day))
}
