package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseUrl        = "https://analytics.indigoprotocol.io/api"
	DefaultRequestTimeout = 20 * time.Second
)

var backoffSchedule = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	10 * time.Second,
}

// Client talks to the Indigo analytics API. Snapshot endpoints only have
// data at protocol snapshot times, so callers pass exact unix times.
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

// AssetPrice is one on-chain oracle price announcement. Price is one
// iAsset unit's value in ADA lovelaces.
type AssetPrice struct {
	Hash        string `json:"hash"`
	Slot        int64  `json:"slot"`
	OutputHash  string `json:"output_hash"`
	OutputIndex int    `json:"output_index"`
	Asset       string `json:"asset"`
	Price       int64  `json:"price"`
	Expiration  int64  `json:"expiration"`
	Address     string `json:"address"`
}

// Cdp is one open CDP. MintedAmount is the iAsset debt in iAsset
// lovelaces.
type Cdp struct {
	OutputHash       string `json:"output_hash"`
	OutputIndex      int    `json:"output_index"`
	Owner            string `json:"owner"`
	Asset            string `json:"asset"`
	CollateralAmount int64  `json:"collateralAmount"`
	MintedAmount     int64  `json:"mintedAmount"`
}

// WhitelistedPool is a DEX pool whitelisted on Indigo for LP rewards.
// Token is the pool LP token's "policyId.assetName" identifier.
type WhitelistedPool struct {
	Token    string `json:"token"`
	AssetA   string `json:"assetA"`
	AssetB   string `json:"assetB"`
	Exchange string `json:"exchange"`
}

// LockedAssetSnapshot is a DEX pool's iAsset balance at a point in time.
// The endpoint mixes in special entries that track LP token balances of
// select addresses instead; those carry an empty LpToken and a For
// description ending in " Token Locked".
type LockedAssetSnapshot struct {
	Id        int64  `json:"id"`
	For       string `json:"for"`
	Address   string `json:"address"`
	Asset     string `json:"asset"`
	LpToken   string `json:"lp_token"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// LpTokenSupplySnapshot is an LP token's total minted supply at a point
// in time, circulating or not.
type LpTokenSupplySnapshot struct {
	Id        int64  `json:"id"`
	For       string `json:"for"`
	Asset     string `json:"asset"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// LiquidityPosition is an account's Indigo-staked LP token holdings.
// Value is an embedded JSON object mapping LP token ids to counts.
type LiquidityPosition struct {
	OutputHash  string `json:"output_hash"`
	OutputIndex int    `json:"output_index"`
	Owner       string `json:"owner"`
	Value       string `json:"value"`
}

type StabilityPoolAccount struct {
	Asset        string `json:"asset"`
	IAssetStaked int64  `json:"iasset_staked"`
	OpenedAt     int64  `json:"opened_at"`
	Owner        string `json:"owner"`
}

type GovernanceStake struct {
	Owner      string `json:"owner"`
	StakedIndy int64  `json:"staked_indy"`
}

// AssetPrices returns the oracle feeds' latest state at a unix time, or
// the current state when atUnixTime is nil.
func (c *Client) AssetPrices(ctx context.Context, atUnixTime *int64) ([]AssetPrice, error) {
	var out []AssetPrice
	if atUnixTime == nil {
		return out, c.get(ctx, "/asset-prices", nil, &out)
	}
	return out, c.post(ctx, "/asset-prices", map[string]int64{"timestamp": *atUnixTime}, &out)
}

// Cdps returns the state of all CDPs open at a unix time, or currently
// open when atUnixTime is nil.
func (c *Client) Cdps(ctx context.Context, atUnixTime *int64) ([]Cdp, error) {
	var out []Cdp
	if atUnixTime == nil {
		return out, c.get(ctx, "/cdps", nil, &out)
	}
	return out, c.post(ctx, "/cdps", map[string]int64{"timestamp": *atUnixTime}, &out)
}

func (c *Client) LiquidityPools(ctx context.Context) ([]WhitelistedPool, error) {
	var out []WhitelistedPool
	return out, c.get(ctx, "/liquidity-pools", nil, &out)
}

// LiquidityPoolsLockedAsset returns pool balance snapshots taken at or
// after a unix time, newest first. The endpoint has no upper bound, so
// callers filter trailing days themselves.
func (c *Client) LiquidityPoolsLockedAsset(ctx context.Context, afterUnixTime int64) ([]LockedAssetSnapshot, error) {
	var out []LockedAssetSnapshot
	params := url.Values{"after": []string{strconv.FormatInt(afterUnixTime, 10)}}
	return out, c.get(ctx, "/liquidity-pools/locked-asset", params, &out)
}

func (c *Client) LiquidityPoolsCirculatingSupply(ctx context.Context, afterUnixTime int64) ([]LpTokenSupplySnapshot, error) {
	var out []LpTokenSupplySnapshot
	params := url.Values{"after": []string{strconv.FormatInt(afterUnixTime, 10)}}
	return out, c.get(ctx, "/liquidity-pools/circulating-supply", params, &out)
}

func (c *Client) LiquidityPositions(ctx context.Context, atUnixTime int64) ([]LiquidityPosition, error) {
	var out []LiquidityPosition
	return out, c.post(ctx, "/liquidity-positions", map[string]int64{"timestamp": atUnixTime}, &out)
}

// StabilityPoolAccounts returns every SP account's balance at a snapshot
// time. Only exact snapshot times have data; anything else is a 404.
func (c *Client) StabilityPoolAccounts(ctx context.Context, snapshotUnixTime int64) ([]StabilityPoolAccount, error) {
	var out []StabilityPoolAccount
	params := url.Values{"timestamp": []string{strconv.FormatInt(snapshotUnixTime, 10)}}
	return out, c.get(ctx, "/rewards/stability-pool", params, &out)
}

// GovernanceStakes returns each account's reward-eligible INDY at a
// Cardano epoch rollover time.
func (c *Client) GovernanceStakes(ctx context.Context, snapshotUnixTime int64) ([]GovernanceStake, error) {
	var out []GovernanceStake
	params := url.Values{"timestamp": []string{strconv.FormatInt(snapshotUnixTime, 10)}}
	return out, c.get(ctx, "/rewards/staking", params, &out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.makeRequestWithBackoff(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.makeRequestWithBackoff(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) makeRequestWithBackoff(ctx context.Context, method string, path string, params url.Values, body any, out any) error {
	var lastErr error
	for i, backoff := range backoffSchedule {
		retryable, err := c.makeRequest(ctx, method, path, params, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		if i < len(backoffSchedule)-1 {
			c.logger.Sugar().Infow("Analytics request failed, backing off",
				zap.String("path", path),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// makeRequest performs one HTTP round trip. The bool reports whether the
// failure is worth retrying (transport errors, 429 and 5xx responses).
func (c *Client) makeRequest(ctx context.Context, method string, path string, params url.Values, body any, out any) (bool, error) {
	fullUrl := c.baseUrl + path
	if len(params) > 0 {
		fullUrl += "?" + params.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, errors.Wrap(err, "failed to encode the analytics request body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullUrl, reqBody)
	if err != nil {
		return false, errors.Wrap(err, "failed to create the analytics HTTP request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return true, errors.Wrap(err, "failed to perform the analytics HTTP request")
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return true, errors.Wrap(err, "failed to read the analytics HTTP response")
	}

	if res.StatusCode != http.StatusOK {
		retryable := res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
		return retryable, fmt.Errorf("analytics API %s returned status %d: %s", path, res.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return false, errors.Wrapf(err, "failed to parse the analytics %s response", path)
	}

	c.logger.Sugar().Debugw("Fetched analytics data", zap.String("path", path))
	return false, nil
}
