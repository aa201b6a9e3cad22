package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "INDY_REWARDS"

// Flag names shared between cobra and viper.
const (
	Debug = "debug"

	AnalyticsBaseUrl        = "analytics.base-url"
	AnalyticsRequestTimeout = "analytics.request-timeout"

	PolygonBaseUrl = "polygon.base-url"
	PolygonApiKey  = "polygon.api-key"

	DataDogStatsdEnableMetrics = "datadog.statsd.enable-metrics"
	DataDogStatsdUrl           = "datadog.statsd.url"
	DataDogStatsdSampleRate    = "datadog.statsd.sample-rate"
)

type AnalyticsConfig struct {
	BaseUrl        string
	RequestTimeout time.Duration
}

type PolygonConfig struct {
	BaseUrl string
	ApiKey  string
}

type StatsdConfig struct {
	EnableMetrics bool
	Url           string
	SampleRate    float64
}

type Config struct {
	Debug           bool
	AnalyticsConfig AnalyticsConfig
	PolygonConfig   PolygonConfig
	StatsdConfig    StatsdConfig
}

// KebabToSnakeCase converts a kebab-case flag name into the form viper
// stores keys under. Dots are preserved so nested keys keep working.
func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(KebabToSnakeCase(Debug)),

		AnalyticsConfig: AnalyticsConfig{
			BaseUrl:        viper.GetString(KebabToSnakeCase(AnalyticsBaseUrl)),
			RequestTimeout: viper.GetDuration(KebabToSnakeCase(AnalyticsRequestTimeout)),
		},

		PolygonConfig: PolygonConfig{
			BaseUrl: viper.GetString(KebabToSnakeCase(PolygonBaseUrl)),
			ApiKey:  polygonApiKey(),
		},

		StatsdConfig: StatsdConfig{
			EnableMetrics: viper.GetBool(KebabToSnakeCase(DataDogStatsdEnableMetrics)),
			Url:           viper.GetString(KebabToSnakeCase(DataDogStatsdUrl)),
			SampleRate:    viper.GetFloat64(KebabToSnakeCase(DataDogStatsdSampleRate)),
		},
	}
}

// polygonApiKey falls back to the bare POLYGON_API_KEY variable so .env
// files written for other tooling keep working without the prefix.
func polygonApiKey() string {
	if key := viper.GetString(KebabToSnakeCase(PolygonApiKey)); key != "" {
		return key
	}
	return os.Getenv("POLYGON_API_KEY")
}
