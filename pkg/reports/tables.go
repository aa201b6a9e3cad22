package reports

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/IndigoProtocol/indy-rewards/pkg/apr"
	"github.com/IndigoProtocol/indy-rewards/pkg/distribution"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// WriteDetailTable renders events as an aligned console table. Amounts
// are INDY with six decimals, derived from the lovelace figures so the
// screen matches the CSV to the last digit.
func WriteDetailTable(w io.Writer, events []rewards.Event, cal *epochs.Calendar) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Period\tAddress\tPurpose\tDate\tAmount\tExpiration\tAvailableAt")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			cal.SundaeImportPeriod(e.Day),
			e.Pkh,
			e.Purpose.Label(),
			e.Day.Format(dayFormat),
			decimal.New(e.Lovelaces(), -6).StringFixed(6),
			e.ExpiresAt.Format(minuteFormat),
			e.AvailableAt.Format(minuteFormat),
		)
	}
	return tw.Flush()
}

// WriteSummaryTable renders per-purpose totals in their given order.
func WriteSummaryTable(w io.Writer, rows []rewards.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Purpose\tAmount")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Label, row.Amount.StringFixed(6))
	}
	return tw.Flush()
}

// WriteSpAprs prints one percentage line per stability pool in canonical
// iAsset order.
func WriteSpAprs(w io.Writer, aprs map[types.StabilityPool]decimal.Decimal) error {
	for _, iasset := range types.AllIAssets() {
		rate, ok := aprs[types.StabilityPool{IAsset: iasset}]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s%%\n", iasset, apr.Percentage(rate).StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

// WriteLpAprs prints percentages grouped under an iAsset heading, one
// line per DEX.
func WriteLpAprs(w io.Writer, aprs map[types.LiquidityPool]decimal.Decimal) error {
	byIAsset := make(map[types.IAsset]map[types.Dex]decimal.Decimal)
	for pool, rate := range aprs {
		if byIAsset[pool.IAsset] == nil {
			byIAsset[pool.IAsset] = make(map[types.Dex]decimal.Decimal)
		}
		byIAsset[pool.IAsset][pool.Dex] = rate
	}

	for _, iasset := range types.AllIAssets() {
		dexRates, ok := byIAsset[iasset]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", iasset); err != nil {
			return err
		}
		for _, dex := range types.AllDexes() {
			rate, ok := dexRates[dex]
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s: %s%%\n", dex, apr.Percentage(rate).StringFixed(2)); err != nil {
				return err
			}
		}
	}
	return nil
}

type poolTotal struct {
	pool types.LiquidityPool
	indy decimal.Decimal
}

// WriteLpPoolSummary prints per-pool INDY totals grouped by DEX, with
// each pool's share of the whole range. The headline total sums the
// per-day amounts after rounding them to lovelace precision, the way the
// claim pipeline pays them out, so it can drift a few millionths from
// the sum of the unrounded pool lines.
func WriteLpPoolSummary(w io.Writer, poolRewards []distribution.PoolReward) error {
	perPool := make(map[types.LiquidityPool]decimal.Decimal)
	roundedTotal := decimal.Zero
	for _, r := range poolRewards {
		perPool[r.Pool] = perPool[r.Pool].Add(r.Indy)
		roundedTotal = roundedTotal.Add(r.Indy.Round(6))
	}

	totalIndy := decimal.Zero
	for _, indy := range perPool {
		totalIndy = totalIndy.Add(indy)
	}

	if _, err := fmt.Fprintf(w, "Total: %s INDY\n", roundedTotal.StringFixed(6)); err != nil {
		return err
	}

	byDex := make(map[types.Dex][]poolTotal)
	for pool, indy := range perPool {
		byDex[pool.Dex] = append(byDex[pool.Dex], poolTotal{pool: pool, indy: indy})
	}

	for _, dex := range types.AllDexes() {
		totals, ok := byDex[dex]
		if !ok {
			continue
		}
		sort.Slice(totals, func(i, j int) bool {
			if totals[i].pool.IAsset != totals[j].pool.IAsset {
				return totals[i].pool.IAsset < totals[j].pool.IAsset
			}
			return totals[i].pool.OtherAssetName < totals[j].pool.OtherAssetName
		})

		dexTotal := decimal.Zero
		for _, t := range totals {
			dexTotal = dexTotal.Add(t.indy.Round(6))
		}
		if _, err := fmt.Fprintf(w, "\n%s (Total: %s):\n\n", dex, dexTotal.StringFixed(6)); err != nil {
			return err
		}

		for _, t := range totals {
			percent := 0.0
			if totalIndy.IsPositive() {
				percent = t.indy.Div(totalIndy).Mul(hundred).InexactFloat64()
			}
			if _, err := fmt.Fprintf(w, "- %s %s/%s: %12s %5.1f%%\n",
				t.pool.Dex, t.pool.IAsset, t.pool.OtherAssetName,
				t.indy.StringFixed(6), percent); err != nil {
				return err
			}
		}
	}
	return nil
}
