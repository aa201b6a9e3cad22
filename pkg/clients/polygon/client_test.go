package polygon

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/IndigoProtocol/indy-rewards/internal/logger"
	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/agiledragon/gomonkey/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

const (
	testBaseUrl = "https://polygon.test"
	testApiKey  = "test-key"
)

func setup(t *testing.T) *Client {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	mockHttpClient := &http.Client{
		Transport: httpmock.DefaultTransport,
	}
	return NewClient(mockHttpClient, testBaseUrl, testApiKey, l)
}

const adaRangeUrl = testBaseUrl + "/v2/aggs/ticker/X:ADAUSD/range/1/day/2023-03-08/2023-03-11?apiKey=test-key"

func Test_DailyClosingPrices(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := setup(t)
	firstDay := epochs.Day(2023, 3, 8)
	lastDay := epochs.Day(2023, 3, 11)

	t.Run("Test that every day of the range gets its close", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", adaRangeUrl,
			httpmock.NewStringResponder(200, `{
				"status": "OK",
				"queryCount": 4,
				"resultsCount": 4,
				"results": [
					{"t": 1678233600000, "c": 0.3176},
					{"t": 1678320000000, "c": 0.3104},
					{"t": 1678406400000, "c": 0.316},
					{"t": 1678492800000, "c": 0.3074}
				]
			}`),
		)

		prices, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Nil(t, err)
		assert.Len(t, prices, 4)
		assert.Equal(t, 0.3176, prices[epochs.Day(2023, 3, 8)])
		assert.Equal(t, 0.3104, prices[epochs.Day(2023, 3, 9)])
		assert.Equal(t, 0.316, prices[epochs.Day(2023, 3, 10)])
		assert.Equal(t, 0.3074, prices[epochs.Day(2023, 3, 11)])
	})

	t.Run("Test that a non-OK status fails", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", adaRangeUrl,
			httpmock.NewStringResponder(200, `{"status": "DELAYED", "queryCount": 0, "resultsCount": 0}`),
		)

		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `"DELAYED"`)
	})

	t.Run("Test that a queryCount mismatch fails", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", adaRangeUrl,
			httpmock.NewStringResponder(200, `{
				"status": "OK",
				"queryCount": 4,
				"resultsCount": 3,
				"results": [{"t": 1678233600000, "c": 0.3176}]
			}`),
		)

		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "queryCount (4) differs from resultsCount (3)")
	})

	t.Run("Test that a gap inside the range fails", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", adaRangeUrl,
			httpmock.NewStringResponder(200, `{
				"status": "OK",
				"queryCount": 3,
				"resultsCount": 3,
				"results": [
					{"t": 1678233600000, "c": 0.3176},
					{"t": 1678320000000, "c": 0.3104},
					{"t": 1678492800000, "c": 0.3074}
				]
			}`),
		)

		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2023-03-10 is missing")
	})

	t.Run("Test that a candle off 00:00 UTC fails", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("GET", adaRangeUrl,
			httpmock.NewStringResponder(200, `{
				"status": "OK",
				"queryCount": 1,
				"resultsCount": 1,
				"results": [{"t": 1678237200000, "c": 0.3176}]
			}`),
		)

		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "isn't at 00:00 UTC")
	})

	t.Run("Test that unfinished days are refused", func(t *testing.T) {
		patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
			return time.Date(2023, 3, 10, 9, 0, 0, 0, time.UTC)
		})
		defer patches.Reset()

		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", epochs.Day(2023, 3, 9), epochs.Day(2023, 3, 10))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unfinished day 2023-03-10")
	})

	t.Run("Test that a reversed range is rejected", func(t *testing.T) {
		_, err := client.DailyClosingPrices(context.Background(), "X:ADAUSD", lastDay, firstDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "can't be after")
	})

	t.Run("Test that a missing API key fails upfront", func(t *testing.T) {
		l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
		assert.Nil(t, err)
		keyless := NewClient(&http.Client{Transport: httpmock.DefaultTransport}, testBaseUrl, "", l)

		_, err = keyless.DailyClosingPrices(context.Background(), "X:ADAUSD", firstDay, lastDay)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})
}
