package volatility

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"go.uber.org/zap"
)

// Volatility windows span this many daily closing prices, ending the day
// before the snapshot day. The last close of the window is often not out
// yet at snapshot time (21:45 UTC vs 00:00 UTC), hence the one day lag.
const lookbackDays = 365

const adaUsdTicker = "X:ADAUSD"

// Not every future iAsset base asset will fit the X:{symbol}USD pattern,
// so the tickers are spelled out.
var iassetUsdTickers = map[types.IAsset]string{
	types.IAsset_iBTC: "X:BTCUSD",
	types.IAsset_iETH: "X:ETHUSD",
}

type PriceSource interface {
	DailyClosingPrices(ctx context.Context, ticker string, firstDay time.Time, lastDay time.Time) (map[time.Time]float64, error)
}

// Service derives per-iAsset volatility factors from daily closing price
// history. Sigma is the population standard deviation of the daily
// relative changes of the iAsset's ADA-denominated price.
type Service struct {
	prices PriceSource
	logger *zap.Logger
}

func NewService(prices PriceSource, l *zap.Logger) *Service {
	return &Service{
		prices: prices,
		logger: l,
	}
}

// Sigma returns the volatility factor of one iAsset for a snapshot day.
func (s *Service) Sigma(ctx context.Context, iasset types.IAsset, day time.Time) (float64, error) {
	firstDay, lastDay := window(day)
	adaUsd, err := s.prices.DailyClosingPrices(ctx, adaUsdTicker, firstDay, lastDay)
	if err != nil {
		return 0, err
	}
	return s.sigmaAgainstAda(ctx, iasset, firstDay, lastDay, adaUsd)
}

// Sigmas returns the volatility factor of each given iAsset for a snapshot
// day, sharing one ADA price fetch across them.
func (s *Service) Sigmas(ctx context.Context, iassets []types.IAsset, day time.Time) (map[types.IAsset]float64, error) {
	firstDay, lastDay := window(day)
	adaUsd, err := s.prices.DailyClosingPrices(ctx, adaUsdTicker, firstDay, lastDay)
	if err != nil {
		return nil, err
	}

	out := make(map[types.IAsset]float64, len(iassets))
	for _, iasset := range iassets {
		sigma, err := s.sigmaAgainstAda(ctx, iasset, firstDay, lastDay, adaUsd)
		if err != nil {
			return nil, err
		}
		out[iasset] = sigma
	}
	return out, nil
}

func (s *Service) sigmaAgainstAda(ctx context.Context, iasset types.IAsset, firstDay time.Time, lastDay time.Time, adaUsd map[time.Time]float64) (float64, error) {
	var iassetUsd map[time.Time]float64
	if iasset == types.IAsset_iUSD {
		// Assumes 1 iUSD = 1 USD. Not exact: iUSD tracks the median of
		// USDC, USDT and TUSD rather than USD itself.
		iassetUsd = flatUsdPrices(firstDay, lastDay)
	} else {
		ticker, ok := iassetUsdTickers[iasset]
		if !ok {
			return 0, fmt.Errorf("no USD price ticker for iAsset %s", iasset)
		}
		var err error
		iassetUsd, err = s.prices.DailyClosingPrices(ctx, ticker, firstDay, lastDay)
		if err != nil {
			return 0, err
		}
	}

	ratios := make([]float64, 0, lookbackDays)
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		iassetPrice, ok := iassetUsd[day]
		if !ok {
			return 0, fmt.Errorf("no %s/USD price for %s", iasset, day.Format("2006-01-02"))
		}
		adaPrice, ok := adaUsd[day]
		if !ok {
			return 0, fmt.Errorf("no ADA/USD price for %s", day.Format("2006-01-02"))
		}
		ratios = append(ratios, iassetPrice/adaPrice)
	}

	changes, err := dailyPctChanges(ratios)
	if err != nil {
		return 0, err
	}

	sigma := pstdev(changes)
	s.logger.Sugar().Debugw("Calculated volatility",
		zap.String("iasset", iasset.String()),
		zap.Float64("sigma", sigma),
	)
	return sigma, nil
}

func window(day time.Time) (time.Time, time.Time) {
	lastDay := epochs.Midnight(day).AddDate(0, 0, -1)
	firstDay := lastDay.AddDate(0, 0, -(lookbackDays - 1))
	return firstDay, lastDay
}

func flatUsdPrices(firstDay time.Time, lastDay time.Time) map[time.Time]float64 {
	out := make(map[time.Time]float64, lookbackDays)
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		out[day] = 1.0
	}
	return out
}

// dailyPctChanges returns the relative day-over-day changes of a series,
// e.g. (100, 120, 60) becomes (0.2, -0.5).
func dailyPctChanges(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("need at least two prices, got %d", len(prices))
	}
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes = append(changes, (prices[i]-prices[i-1])/prices[i-1])
	}
	return changes, nil
}

func pstdev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var squares float64
	for _, v := range values {
		squares += (v - mean) * (v - mean)
	}
	return math.Sqrt(squares / float64(len(values)))
}
