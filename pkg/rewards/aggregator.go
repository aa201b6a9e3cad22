package rewards

import (
	"sort"

	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// SummaryRow is one line of a reward summary table.
type SummaryRow struct {
	Label  string
	Amount decimal.Decimal
}

type Aggregator struct {
	logger *zap.Logger
}

func NewAggregator(l *zap.Logger) *Aggregator {
	return &Aggregator{logger: l}
}

// SortedDetail orders events for line-by-line display: epoch ascending,
// then wallet, then purpose label. Content is passed through unchanged.
func (a *Aggregator) SortedDetail(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Epoch != out[j].Epoch {
			return out[i].Epoch < out[j].Epoch
		}
		if out[i].Pkh != out[j].Pkh {
			return out[i].Pkh < out[j].Pkh
		}
		return out[i].Purpose.Label() < out[j].Purpose.Label()
	})
	return out
}

// Summarize rolls events up into per-purpose rows followed by the three
// program totals and a grand total. Sums run over lovelace-rounded
// amounts so the figures match what the claim system pays out, and the
// result of summing is independent of event order.
func (a *Aggregator) Summarize(events []Event) []SummaryRow {
	perPurpose := make(map[types.Purpose]int64)
	for _, e := range events {
		perPurpose[e.Purpose] += e.Lovelaces()
	}

	purposes := make([]types.Purpose, 0, len(perPurpose))
	for p := range perPurpose {
		purposes = append(purposes, p)
	}
	sort.Slice(purposes, func(i, j int) bool {
		return purposes[i].Label() < purposes[j].Label()
	})

	govTotal := types.GovernanceStaking{}.CategoryTotalLabel()
	lpTotal := types.LiquidityProvision{}.CategoryTotalLabel()
	spTotal := types.SingleStaking{}.CategoryTotalLabel()
	categories := map[string]int64{govTotal: 0, lpTotal: 0, spTotal: 0}

	rows := orderedmap.New[string, int64]()
	var grand int64
	for _, p := range purposes {
		lovelaces := perPurpose[p]
		rows.Set(p.Label(), lovelaces)
		categories[p.CategoryTotalLabel()] += lovelaces
		grand += lovelaces
	}

	rows.Set(govTotal, categories[govTotal])
	rows.Set(lpTotal, categories[lpTotal])
	rows.Set(spTotal, categories[spTotal])
	rows.Set("Total", grand)

	out := make([]SummaryRow, 0, rows.Len())
	for pair := rows.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, SummaryRow{
			Label:  pair.Key,
			Amount: decimal.New(pair.Value, -6),
		})
	}
	return out
}
