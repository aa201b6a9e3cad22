package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

var (
	Metric_Incr_CommandRun       = "commandRun"
	Metric_Incr_AnalyticsRequest = "analytics.request"
	Metric_Incr_PriceFeedRequest = "priceFeed.request"

	Metric_Gauge_RewardEventCount = "rewardEvents.count"

	Metric_Timing_SnapshotFetchDuration = "snapshot.fetch.duration"
	Metric_Timing_RewardsCalcDuration   = "rewards.duration"
	Metric_Timing_AprCalcDuration       = "apr.duration"
)
