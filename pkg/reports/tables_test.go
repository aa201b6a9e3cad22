package reports

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/distribution"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var columnGap = regexp.MustCompile(`\s{2,}`)

func splitColumns(line string) []string {
	return columnGap.Split(line, -1)
}

func Test_WriteDetailTable(t *testing.T) {
	cal := epochs.NewCalendar(epochs.DefaultConfig())

	t.Run("Test that events render as aligned rows with INDY amounts", func(t *testing.T) {
		var buf bytes.Buffer

		err := WriteDetailTable(&buf, epoch421Events(), cal)

		assert.Nil(t, err)
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		assert.Equal(t, 3, len(lines))
		assert.Equal(t,
			[]string{"Period", "Address", "Purpose", "Date", "Amount", "Expiration", "AvailableAt"},
			splitColumns(lines[0]))
		assert.Equal(t,
			[]string{"422", "e2abc1", "INDY staking reward", "2023-07-04", "1798.500000", "2023-10-02 21:45", "2023-07-04 23:00"},
			splitColumns(lines[1]))
		assert.Equal(t,
			[]string{"422", "f401d2", "Reward for providing iUSD liquidity on Minswap", "2023-07-01", "0.123456", "2023-10-02 21:45", "2023-07-04 23:00"},
			splitColumns(lines[2]))
	})
}

func Test_WriteSummaryTable(t *testing.T) {
	t.Run("Test that summary rows render in their given order", func(t *testing.T) {
		var buf bytes.Buffer
		rows := []rewards.SummaryRow{
			{Label: "INDY staking reward", Amount: decimal.New(2398000000, -6)},
			{Label: "SP reward for iUSD", Amount: decimal.New(5753600000, -6)},
			{Label: "Total", Amount: decimal.New(8151600000, -6)},
		}

		err := WriteSummaryTable(&buf, rows)

		assert.Nil(t, err)
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		assert.Equal(t, 4, len(lines))
		assert.Equal(t, []string{"Purpose", "Amount"}, splitColumns(lines[0]))
		assert.Equal(t, []string{"INDY staking reward", "2398.000000"}, splitColumns(lines[1]))
		assert.Equal(t, []string{"SP reward for iUSD", "5753.600000"}, splitColumns(lines[2]))
		assert.Equal(t, []string{"Total", "8151.600000"}, splitColumns(lines[3]))
	})
}

func Test_WriteSpAprs(t *testing.T) {
	t.Run("Test that rates print as percentages in canonical iAsset order", func(t *testing.T) {
		var buf bytes.Buffer
		aprs := map[types.StabilityPool]decimal.Decimal{
			{IAsset: types.IAsset_iUSD}: decimal.RequireFromString("0.1234"),
			{IAsset: types.IAsset_iBTC}: decimal.RequireFromString("0.4"),
		}

		err := WriteSpAprs(&buf, aprs)

		assert.Nil(t, err)
		assert.Equal(t, "iBTC: 40.00%\niUSD: 12.34%\n", buf.String())
	})
}

func Test_WriteLpAprs(t *testing.T) {
	t.Run("Test that rates group under iAsset headings per DEX", func(t *testing.T) {
		var buf bytes.Buffer
		aprs := map[types.LiquidityPool]decimal.Decimal{
			{Dex: types.Dex_Minswap, IAsset: types.IAsset_iUSD, OtherAssetName: "ADA"}:    decimal.RequireFromString("0.0206"),
			{Dex: types.Dex_WingRiders, IAsset: types.IAsset_iUSD, OtherAssetName: "ADA"}: decimal.RequireFromString("0.031"),
			{Dex: types.Dex_WingRiders, IAsset: types.IAsset_iETH, OtherAssetName: "ADA"}: decimal.RequireFromString("0.125"),
		}

		err := WriteLpAprs(&buf, aprs)

		assert.Nil(t, err)
		expected := "\niETH\nWingRiders: 12.50%\n" +
			"\niUSD\nMinswap: 2.06%\nWingRiders: 3.10%\n"
		assert.Equal(t, expected, buf.String())
	})
}

func Test_WriteLpPoolSummary(t *testing.T) {
	iusdMinswap := types.LiquidityPool{
		Dex: types.Dex_Minswap, IAsset: types.IAsset_iUSD, OtherAssetName: "ADA", LpTokenId: "minlp.iusd",
	}
	iusdWingRiders := types.LiquidityPool{
		Dex: types.Dex_WingRiders, IAsset: types.IAsset_iUSD, OtherAssetName: "ADA", LpTokenId: "wrlp.iusd",
	}
	iethWingRiders := types.LiquidityPool{
		Dex: types.Dex_WingRiders, IAsset: types.IAsset_iETH, OtherAssetName: "ADA", LpTokenId: "wrlp.ieth",
	}

	t.Run("Test that pool totals group by DEX with shares of the range total", func(t *testing.T) {
		var buf bytes.Buffer
		poolRewards := []distribution.PoolReward{
			{Pool: iusdMinswap, Day: epochs.Day(2023, time.April, 1), Indy: decimal.NewFromInt(400)},
			{Pool: iusdMinswap, Day: epochs.Day(2023, time.April, 2), Indy: decimal.NewFromInt(200)},
			{Pool: iethWingRiders, Day: epochs.Day(2023, time.April, 1), Indy: decimal.NewFromInt(300)},
			{Pool: iusdWingRiders, Day: epochs.Day(2023, time.April, 1), Indy: decimal.NewFromInt(100)},
		}

		err := WriteLpPoolSummary(&buf, poolRewards)

		assert.Nil(t, err)
		expected := "Total: 1000.000000 INDY\n" +
			"\nMinswap (Total: 600.000000):\n\n" +
			"- Minswap iUSD/ADA:   600.000000  60.0%\n" +
			"\nWingRiders (Total: 400.000000):\n\n" +
			"- WingRiders iETH/ADA:   300.000000  30.0%\n" +
			"- WingRiders iUSD/ADA:   100.000000  10.0%\n"
		assert.Equal(t, expected, buf.String())
	})

	t.Run("Test that the headline total sums day amounts at lovelace precision", func(t *testing.T) {
		var buf bytes.Buffer
		poolRewards := []distribution.PoolReward{
			{Pool: iusdMinswap, Day: epochs.Day(2023, time.April, 1), Indy: decimal.RequireFromString("0.0000004")},
			{Pool: iusdMinswap, Day: epochs.Day(2023, time.April, 2), Indy: decimal.RequireFromString("0.0000004")},
		}

		err := WriteLpPoolSummary(&buf, poolRewards)

		assert.Nil(t, err)
		expected := "Total: 0.000000 INDY\n" +
			"\nMinswap (Total: 0.000001):\n\n" +
			"- Minswap iUSD/ADA:     0.000001 100.0%\n"
		assert.Equal(t, expected, buf.String())
	})
}
