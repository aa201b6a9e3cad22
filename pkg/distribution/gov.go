package distribution

import (
	"context"
	"fmt"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// govDuplicateCutoff is the first snapshot day the staking endpoint was
// expected to return one row per owner. Duplicates in earlier snapshots
// are folded together.
var govDuplicateCutoff = epochs.Day(2023, 5, 20)

// GovEpochRewards returns each INDY staker's governance reward for an
// epoch. The whole epoch's amount pays out against the closing snapshot.
func (e *Engine) GovEpochRewards(ctx context.Context, epoch int64, epochIndy decimal.Decimal) ([]rewards.RawEvent, error) {
	snapDate := e.calendar.EpochEndDate(epoch)
	stakes, err := e.market.Client().GovernanceStakes(ctx, e.calendar.SnapshotUnix(snapDate))
	if err != nil {
		return nil, err
	}
	if len(stakes) == 0 {
		return nil, fmt.Errorf("no INDY stakes in the epoch %d staking snapshot", epoch)
	}

	owners := orderedmap.New[string, decimal.Decimal]()
	duplicates := false
	for _, stake := range stakes {
		staked := decimal.New(stake.StakedIndy, -6)
		if prev, ok := owners.Get(stake.Owner); ok {
			duplicates = true
			owners.Set(stake.Owner, prev.Add(staked))
		} else {
			owners.Set(stake.Owner, staked)
		}
	}
	if duplicates && !snapDate.Before(govDuplicateCutoff) {
		return nil, fmt.Errorf("duplicate owner rows in the epoch %d staking snapshot", epoch)
	}

	events, err := proRataDistribute(epochIndy, owners, snapDate, types.GovernanceStaking{})
	if err != nil {
		return nil, err
	}

	e.logger.Sugar().Debugw("Calculated governance staking rewards",
		zap.Int64("epoch", epoch),
		zap.Int("stakers", len(events)),
	)
	return events, nil
}
