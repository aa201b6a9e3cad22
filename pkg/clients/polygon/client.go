package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultBaseUrl = "https://api.polygon.io"

var backoffSchedule = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	10 * time.Second,
}

// Client fetches daily OHLC aggregates from api.polygon.io. Prices stay
// float64 here: the only consumer is the volatility statistics, which
// work on relative changes.
type Client struct {
	httpClient *http.Client
	baseUrl    string
	apiKey     string
	logger     *zap.Logger
}

func NewClient(hc *http.Client, baseUrl string, apiKey string, l *zap.Logger) *Client {
	return &Client{
		httpClient: hc,
		baseUrl:    baseUrl,
		apiKey:     apiKey,
		logger:     l,
	}
}

type aggsResponse struct {
	Status       string       `json:"status"`
	QueryCount   int          `json:"queryCount"`
	ResultsCount int          `json:"resultsCount"`
	Results      []aggsCandle `json:"results"`
}

type aggsCandle struct {
	Timestamp int64   `json:"t"`
	Close     float64 `json:"c"`
}

// DailyClosingPrices returns the UTC daily closing prices of a ticker for
// every day of [firstDay, lastDay], both inclusive. The closing price of a
// day is the close of its UTC daily candle, the same as the opening price
// at 00:00 UTC of the next day. Unfinished days (today or later) are
// refused because their candle is still moving.
func (c *Client) DailyClosingPrices(ctx context.Context, ticker string, firstDay time.Time, lastDay time.Time) (map[time.Time]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("polygon API key is not set")
	}

	firstDay = epochs.Midnight(firstDay)
	lastDay = epochs.Midnight(lastDay)

	if firstDay.After(lastDay) {
		return nil, fmt.Errorf("first day %s can't be after last day %s",
			firstDay.Format("2006-01-02"), lastDay.Format("2006-01-02"))
	}
	for _, day := range []time.Time{firstDay, lastDay} {
		if isUnfinishedDay(day) {
			return nil, fmt.Errorf("won't return a price for unfinished day %s", day.Format("2006-01-02"))
		}
	}

	response, err := c.fetchAggs(ctx, ticker, firstDay, lastDay)
	if err != nil {
		return nil, err
	}

	prices, err := closingPrices(response)
	if err != nil {
		return nil, err
	}

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if _, ok := prices[day]; !ok {
			return nil, fmt.Errorf("requested %s to %s, but at least %s is missing",
				firstDay.Format("2006-01-02"), lastDay.Format("2006-01-02"), day.Format("2006-01-02"))
		}
	}

	return prices, nil
}

func closingPrices(response *aggsResponse) (map[time.Time]float64, error) {
	if response.Status != "OK" {
		return nil, fmt.Errorf("polygon response status is %q, not \"OK\"", response.Status)
	}
	if response.QueryCount != response.ResultsCount {
		return nil, fmt.Errorf("polygon queryCount (%d) differs from resultsCount (%d)",
			response.QueryCount, response.ResultsCount)
	}
	if response.ResultsCount == 0 || len(response.Results) == 0 {
		return nil, fmt.Errorf("no prices found in the polygon response")
	}

	prices := make(map[time.Time]float64, len(response.Results))
	for _, candle := range response.Results {
		at := time.UnixMilli(candle.Timestamp).UTC()
		if !at.Equal(epochs.Midnight(at)) {
			return nil, fmt.Errorf("daily candle timestamp %d isn't at 00:00 UTC", candle.Timestamp)
		}
		prices[at] = candle.Close
	}
	return prices, nil
}

func (c *Client) fetchAggs(ctx context.Context, ticker string, firstDay time.Time, lastDay time.Time) (*aggsResponse, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		ticker, firstDay.Format("2006-01-02"), lastDay.Format("2006-01-02"))
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	fullUrl := c.baseUrl + path + "?" + params.Encode()

	var response *aggsResponse
	var lastErr error
	for i, backoff := range backoffSchedule {
		var retryable bool
		response, retryable, lastErr = c.makeRequest(ctx, fullUrl, path)
		if lastErr == nil {
			return response, nil
		}
		if !retryable {
			return nil, lastErr
		}
		if i < len(backoffSchedule)-1 {
			c.logger.Sugar().Infow("Polygon request failed, backing off",
				zap.String("path", path),
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
	return nil, lastErr
}

func (c *Client) makeRequest(ctx context.Context, fullUrl string, path string) (*aggsResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create the polygon HTTP request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to perform the polygon HTTP request")
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to read the polygon HTTP response")
	}

	if res.StatusCode != http.StatusOK {
		retryable := res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
		return nil, retryable, fmt.Errorf("polygon API %s returned status %d", path, res.StatusCode)
	}

	response := &aggsResponse{}
	if err := json.Unmarshal(bodyBytes, response); err != nil {
		return nil, false, errors.Wrapf(err, "failed to parse the polygon %s response", path)
	}
	return response, false, nil
}

// isUnfinishedDay reports whether the UTC daily candle of a day hasn't
// closed yet. A day is finished once 00:00 UTC of the next day passes.
func isUnfinishedDay(day time.Time) bool {
	today := epochs.Midnight(time.Now().UTC())
	return !day.Before(today)
}
