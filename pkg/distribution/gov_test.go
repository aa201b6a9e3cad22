package distribution

import (
	"context"
	"testing"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_GovEpochRewards(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	engine := setupEngine(t, DefaultConfig(), &stubSigmas{})
	epochIndy := decimal.NewFromInt(2398)

	t.Run("Test that the epoch amount splits pro rata by staked INDY", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/staking?timestamp=1679867100",
			httpmock.NewStringResponder(200, `[
				{"owner": "aaaa", "staked_indy": 600000000},
				{"owner": "bbbb", "staked_indy": 400000000}
			]`),
		)

		events, err := engine.GovEpochRewards(context.Background(), 401, epochIndy)
		assert.Nil(t, err)
		assert.Len(t, events, 2)

		assert.Equal(t, "aaaa", events[0].Pkh)
		assert.True(t, events[0].Amount.Equal(decimal.RequireFromString("1438.8")))
		assert.Equal(t, "bbbb", events[1].Pkh)
		assert.True(t, events[1].Amount.Equal(decimal.RequireFromString("959.2")))

		assert.Equal(t, types.GovernanceStaking{}, events[0].Purpose)
		assert.True(t, events[0].Day.Equal(epochs.Day(2023, 3, 26)))
	})

	t.Run("Test that duplicate owners are folded together before 2023-05-20", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/staking?timestamp=1684187100",
			httpmock.NewStringResponder(200, `[
				{"owner": "aaaa", "staked_indy": 300000000},
				{"owner": "aaaa", "staked_indy": 300000000},
				{"owner": "bbbb", "staked_indy": 400000000}
			]`),
		)

		events, err := engine.GovEpochRewards(context.Background(), 411, epochIndy)
		assert.Nil(t, err)
		assert.Len(t, events, 2)

		assert.Equal(t, "aaaa", events[0].Pkh)
		assert.True(t, events[0].Amount.Equal(decimal.RequireFromString("1438.8")))
	})

	t.Run("Test that duplicate owners fail from 2023-05-20 on", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/staking?timestamp=1684619100",
			httpmock.NewStringResponder(200, `[
				{"owner": "aaaa", "staked_indy": 300000000},
				{"owner": "aaaa", "staked_indy": 300000000}
			]`),
		)

		_, err := engine.GovEpochRewards(context.Background(), 412, epochIndy)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate owner rows")
	})

	t.Run("Test that an empty staking snapshot fails", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/staking?timestamp=1679867100",
			httpmock.NewStringResponder(200, `[]`),
		)

		_, err := engine.GovEpochRewards(context.Background(), 401, epochIndy)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no INDY stakes")
	})
}
