package rewards

import (
	"math/rand"
	"testing"

	"github.com/IndigoProtocol/indy-rewards/internal/logger"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newAggregator(t *testing.T) *Aggregator {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)
	return NewAggregator(l)
}

func rowAmount(rows []SummaryRow, label string) decimal.Decimal {
	for _, r := range rows {
		if r.Label == label {
			return r.Amount
		}
	}
	return decimal.NewFromInt(-1)
}

func Test_SortedDetail(t *testing.T) {
	agg := newAggregator(t)

	events := []Event{
		{Epoch: 402, Pkh: "aaaa", Purpose: types.SingleStaking{IAsset: types.IAsset_iUSD}},
		{Epoch: 401, Pkh: "bbbb", Purpose: types.GovernanceStaking{}},
		{Epoch: 401, Pkh: "aaaa", Purpose: types.SingleStaking{IAsset: types.IAsset_iBTC}},
		{Epoch: 401, Pkh: "aaaa", Purpose: types.GovernanceStaking{}},
	}

	sorted := agg.SortedDetail(events)

	assert.Equal(t, int64(401), sorted[0].Epoch)
	assert.Equal(t, "aaaa", sorted[0].Pkh)
	assert.Equal(t, "INDY staking reward", sorted[0].Purpose.Label())

	assert.Equal(t, "SP reward for iBTC", sorted[1].Purpose.Label())
	assert.Equal(t, "bbbb", sorted[2].Pkh)
	assert.Equal(t, int64(402), sorted[3].Epoch)

	// Input order is untouched.
	assert.Equal(t, int64(402), events[0].Epoch)
}

func Test_Summarize(t *testing.T) {
	agg := newAggregator(t)
	day := epochs.Day(2023, 3, 22)

	t.Run("Test governance rewards roll up into one row and matching totals", func(t *testing.T) {
		events := []Event{
			{Pkh: "walletA", Purpose: types.GovernanceStaking{}, Day: day, Amount: decimal.NewFromFloat(10.0)},
			{Pkh: "walletB", Purpose: types.GovernanceStaking{}, Day: day, Amount: decimal.NewFromFloat(5.0)},
		}

		rows := agg.Summarize(events)

		assert.True(t, rowAmount(rows, "INDY staking reward").Equal(decimal.NewFromInt(15)))
		assert.True(t, rowAmount(rows, "Total INDY staking reward").Equal(decimal.NewFromInt(15)))
		assert.True(t, rowAmount(rows, "Total LP reward").Equal(decimal.Zero))
		assert.True(t, rowAmount(rows, "Total SP reward").Equal(decimal.Zero))
		assert.True(t, rowAmount(rows, "Total").Equal(decimal.NewFromInt(15)))
	})

	t.Run("Test that rows are label-sorted with totals at the end", func(t *testing.T) {
		events := []Event{
			{Pkh: "w1", Purpose: types.SingleStaking{IAsset: types.IAsset_iUSD}, Day: day, Amount: decimal.NewFromInt(3)},
			{Pkh: "w1", Purpose: types.GovernanceStaking{}, Day: day, Amount: decimal.NewFromInt(1)},
			{Pkh: "w1", Purpose: types.LiquidityProvision{IAsset: types.IAsset_iBTC, Dex: types.Dex_WingRiders}, Day: day, Amount: decimal.NewFromInt(2)},
			{Pkh: "w2", Purpose: types.SingleStaking{IAsset: types.IAsset_iBTC}, Day: day, Amount: decimal.NewFromInt(4)},
		}

		rows := agg.Summarize(events)

		labels := make([]string, 0, len(rows))
		for _, r := range rows {
			labels = append(labels, r.Label)
		}
		assert.Equal(t, []string{
			"INDY staking reward",
			"Reward for providing iBTC liquidity on WingRiders",
			"SP reward for iBTC",
			"SP reward for iUSD",
			"Total INDY staking reward",
			"Total LP reward",
			"Total SP reward",
			"Total",
		}, labels)
	})

	t.Run("Test that the grand total is the exact sum of the three categories", func(t *testing.T) {
		events := []Event{
			{Pkh: "w1", Purpose: types.GovernanceStaking{}, Day: day, Amount: decimal.NewFromFloat(0.123456)},
			{Pkh: "w2", Purpose: types.SingleStaking{IAsset: types.IAsset_iETH}, Day: day, Amount: decimal.NewFromFloat(7.654321)},
			{Pkh: "w3", Purpose: types.LiquidityProvision{IAsset: types.IAsset_iUSD, Dex: types.Dex_Minswap}, Day: day, Amount: decimal.NewFromFloat(1.111111)},
		}

		rows := agg.Summarize(events)

		want := rowAmount(rows, "Total INDY staking reward").
			Add(rowAmount(rows, "Total LP reward")).
			Add(rowAmount(rows, "Total SP reward"))
		assert.True(t, rowAmount(rows, "Total").Equal(want))
	})

	t.Run("Test that an empty event set still yields zero totals", func(t *testing.T) {
		rows := agg.Summarize(nil)

		labels := make([]string, 0, len(rows))
		for _, r := range rows {
			labels = append(labels, r.Label)
			assert.True(t, r.Amount.IsZero())
		}
		assert.Equal(t, []string{
			"Total INDY staking reward",
			"Total LP reward",
			"Total SP reward",
			"Total",
		}, labels)
	})

	t.Run("Test that summation is independent of event order", func(t *testing.T) {
		events := make([]Event, 0, 100)
		for i := 0; i < 100; i++ {
			events = append(events, Event{
				Pkh:     "w",
				Purpose: types.SingleStaking{IAsset: types.IAsset_iUSD},
				Day:     day,
				Amount:  decimal.NewFromFloat(0.000001).Mul(decimal.NewFromInt(int64(i + 1))),
			})
		}

		before := agg.Summarize(events)

		r := rand.New(rand.NewSource(9))
		r.Shuffle(len(events), func(i, j int) {
			events[i], events[j] = events[j], events[i]
		})
		after := agg.Summarize(events)

		assert.Equal(t, before, after)
	})

	t.Run("Test that amounts are rounded to lovelaces before summing", func(t *testing.T) {
		// Two thirds of one INDY cannot be paid out exactly; each event
		// rounds to whole lovelaces first.
		third := decimal.NewFromInt(2).Div(decimal.NewFromInt(3))
		events := []Event{
			{Pkh: "w1", Purpose: types.GovernanceStaking{}, Day: day, Amount: third},
			{Pkh: "w2", Purpose: types.GovernanceStaking{}, Day: day, Amount: third},
			{Pkh: "w3", Purpose: types.GovernanceStaking{}, Day: day, Amount: third},
		}

		rows := agg.Summarize(events)
		assert.Equal(t, "2.000001", rowAmount(rows, "INDY staking reward").StringFixed(6))
	})
}
