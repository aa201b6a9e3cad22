package distribution

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/IndigoProtocol/indy-rewards/internal/logger"
	"github.com/IndigoProtocol/indy-rewards/pkg/clients/analytics"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/stretchr/testify/assert"
)

const testBaseUrl = "https://analytics.test"

type stubSigmas struct {
	sigmas map[types.IAsset]float64
	calls  int
}

func (s *stubSigmas) Sigmas(_ context.Context, iassets []types.IAsset, _ time.Time) (map[types.IAsset]float64, error) {
	s.calls++
	out := make(map[types.IAsset]float64, len(iassets))
	for _, iasset := range iassets {
		sigma, ok := s.sigmas[iasset]
		if !ok {
			return nil, fmt.Errorf("no stub sigma for %s", iasset)
		}
		out[iasset] = sigma
	}
	return out, nil
}

func setupEngine(t *testing.T, cfg Config, sigmas *stubSigmas) *Engine {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	mockHttpClient := &http.Client{
		Transport: httpmock.DefaultTransport,
	}
	client := analytics.NewClient(mockHttpClient, testBaseUrl, l)
	cal := epochs.NewCalendar(epochs.DefaultConfig())
	market := analytics.NewMarketData(client, cal, l)
	return NewEngine(market, sigmas, cal, cfg, l)
}

func Test_ProRataDistribute(t *testing.T) {
	day := epochs.Day(2023, 4, 1)
	purpose := types.SingleStaking{IAsset: types.IAsset_iUSD}

	t.Run("Test that amounts split proportional to weights", func(t *testing.T) {
		accounts := orderedmap.New[string, decimal.Decimal]()
		accounts.Set("aaaa", decimal.NewFromInt(1))
		accounts.Set("bbbb", decimal.NewFromInt(3))

		events, err := proRataDistribute(decimal.NewFromInt(100), accounts, day, purpose)
		assert.Nil(t, err)
		assert.Len(t, events, 2)

		assert.Equal(t, "aaaa", events[0].Pkh)
		assert.True(t, events[0].Amount.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, "bbbb", events[1].Pkh)
		assert.True(t, events[1].Amount.Equal(decimal.NewFromInt(75)))

		assert.Equal(t, purpose, events[0].Purpose)
		assert.True(t, events[0].Day.Equal(day))
	})

	t.Run("Test that no accounts yields no events", func(t *testing.T) {
		events, err := proRataDistribute(decimal.NewFromInt(100), orderedmap.New[string, decimal.Decimal](), day, purpose)
		assert.Nil(t, err)
		assert.Empty(t, events)
	})

	t.Run("Test that an all-zero weight set fails instead of dividing by zero", func(t *testing.T) {
		accounts := orderedmap.New[string, decimal.Decimal]()
		accounts.Set("aaaa", decimal.Zero)

		_, err := proRataDistribute(decimal.NewFromInt(100), accounts, day, purpose)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "total weight is zero")
	})
}

func Test_FetchRewardEvents(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	engine := setupEngine(t, DefaultConfig(), &stubSigmas{})

	t.Run("Test that governance pays out only on an epoch's closing day", func(t *testing.T) {
		httpmock.Reset()

		// 2023-03-25 sits inside epoch 401, whose closing day is 03-26.
		events, err := engine.FetchRewardEvents(context.Background(), epochs.Day(2023, 3, 25), rewards.ProgramFilter_Governance)
		assert.Nil(t, err)
		assert.Empty(t, events)
		assert.Zero(t, httpmock.GetTotalCallCount())

		httpmock.RegisterResponder("GET", testBaseUrl+"/rewards/staking?timestamp=1679867100",
			httpmock.NewStringResponder(200, `[
				{"owner": "aaaa", "staked_indy": 600000000},
				{"owner": "bbbb", "staked_indy": 400000000}
			]`),
		)

		events, err = engine.FetchRewardEvents(context.Background(), epochs.Day(2023, 3, 26), rewards.ProgramFilter_Governance)
		assert.Nil(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, types.GovernanceStaking{}, events[0].Purpose)
		assert.True(t, events[0].Amount.Equal(decimal.RequireFromString("1438.8")))
	})

	t.Run("Test that LP rewards stop after the program's last day", func(t *testing.T) {
		httpmock.Reset()

		events, err := engine.FetchRewardEvents(context.Background(), epochs.Day(2023, 7, 5), rewards.ProgramFilter_LiquidityPool)
		assert.Nil(t, err)
		assert.Empty(t, events)
		assert.Zero(t, httpmock.GetTotalCallCount())
	})
}
