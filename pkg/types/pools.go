package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type StabilityPool struct {
	IAsset IAsset
}

// LiquidityPool identifies one iAsset pool on a DEX by its LP token.
type LiquidityPool struct {
	Dex            Dex
	IAsset         IAsset
	OtherAssetName string
	LpTokenId      string
}

// LiquidityPoolStatus is a point-in-time snapshot of a pool. The LP token
// figures are nil when the upstream source has no row for the pool.
type LiquidityPoolStatus struct {
	Pool              LiquidityPool
	IAssetBalance     decimal.Decimal
	LpTokenCircSupply *int64
	LpTokenStaked     *int64
	Timestamp         time.Time
}

type StabilityPoolStatus struct {
	Pool          StabilityPool
	IAssetBalance decimal.Decimal
	Timestamp     time.Time
}
