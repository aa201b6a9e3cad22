package coingecko

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultBaseUrl = "https://www.coingecko.com"

	adaAssetId  = 975
	indyAssetId = 28303
)

var backoffSchedule = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	10 * time.Second,
}

// Client pulls daily price history from Coingecko's chart endpoint. One
// request returns the full history of an asset, which keeps the request
// count low but needs browser-like headers to not get blocked.
type Client struct {
	httpClient *http.Client
	baseUrl    string
	logger     *zap.Logger
}

func NewClient(hc *http.Client, baseUrl string, l *zap.Logger) *Client {
	return &Client{
		httpClient: hc,
		baseUrl:    baseUrl,
		logger:     l,
	}
}

type chartData struct {
	Stats        [][]float64 `json:"stats"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// IndyAdaDailyClosingPrices returns every known daily closing price of
// INDY denominated in ADA, keyed by UTC day. The closing price of a day
// is the price at 00:00 UTC of the next day.
func (c *Client) IndyAdaDailyClosingPrices(ctx context.Context) (map[time.Time]decimal.Decimal, error) {
	adaUsd, err := c.dailyUsdClosingPrices(ctx, adaAssetId)
	if err != nil {
		return nil, err
	}
	indyUsd, err := c.dailyUsdClosingPrices(ctx, indyAssetId)
	if err != nil {
		return nil, err
	}

	out := make(map[time.Time]decimal.Decimal, len(indyUsd))
	for day, indyPrice := range indyUsd {
		adaPrice, ok := adaUsd[day]
		if !ok {
			return nil, fmt.Errorf("found an INDY/USD price for %s but no ADA/USD price", day.Format("2006-01-02"))
		}
		out[day] = indyPrice.Div(adaPrice)
	}
	return out, nil
}

// dailyUsdClosingPrices maps the chart's opening prices to closing prices
// of the previous day. The only point with a time other than 00:00 is the
// current price, which doubles as the provisional closing price for today
// and, right after midnight, for yesterday too.
func (c *Client) dailyUsdClosingPrices(ctx context.Context, assetId int) (map[time.Time]decimal.Decimal, error) {
	chart, err := c.chartData(ctx, assetId)
	if err != nil {
		return nil, err
	}

	out := make(map[time.Time]decimal.Decimal, len(chart.Stats))
	for _, point := range chart.Stats {
		if len(point) < 2 {
			return nil, fmt.Errorf("malformed chart point for asset %d: %v", assetId, point)
		}
		at := time.UnixMilli(int64(point[0])).UTC()
		price := decimal.NewFromFloat(point[1])

		day := epochs.Midnight(at)
		previousDay := day.AddDate(0, 0, -1)

		if at.Equal(day) {
			out[previousDay] = price
			continue
		}
		if _, ok := out[previousDay]; !ok {
			out[previousDay] = price
		}
		out[day] = price
	}
	return out, nil
}

func (c *Client) chartData(ctx context.Context, assetId int) (*chartData, error) {
	url := fmt.Sprintf("%s/price_charts/%d/usd/max.json", c.baseUrl, assetId)

	var chart *chartData
	var lastErr error
	for i, backoff := range backoffSchedule {
		var retryable bool
		chart, retryable, lastErr = c.fetchChartData(ctx, url)
		if lastErr == nil {
			break
		}
		if !retryable {
			return nil, lastErr
		}
		if i < len(backoffSchedule)-1 {
			c.logger.Sugar().Infow("Coingecko request failed, backing off",
				zap.String("url", url),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if chart.Stats == nil || chart.TotalVolumes == nil {
		return nil, fmt.Errorf("chart data for asset %d is missing stats or total_volumes", assetId)
	}
	return chart, nil
}

func (c *Client) fetchChartData(ctx context.Context, url string) (*chartData, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create Coingecko request")
	}

	// Setting Accept-Encoding by hand disables the transport's transparent
	// gzip handling, so the body has to be decompressed here.
	req.Header.Set("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("accept-encoding", "gzip")
	req.Header.Set("accept-language", "en-US,en;q=0.9")
	req.Header.Set("cache-control", "max-age=0")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(err, "Coingecko request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("Coingecko returned status %d for %s", resp.StatusCode, url)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to open the gzipped Coingecko response")
		}
		defer gz.Close()
		body = gz
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to read the Coingecko response")
	}

	chart := &chartData{}
	if err := json.Unmarshal(raw, chart); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode the Coingecko chart data")
	}
	return chart, false, nil
}
