package rewards

import (
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/types"
	"github.com/shopspring/decimal"
)

// Event is one wallet's reward for one UTC day, with its claim window
// already materialized.
type Event struct {
	Pkh         string
	Purpose     types.Purpose
	Day         time.Time
	Epoch       int64
	Amount      decimal.Decimal
	AvailableAt time.Time
	ExpiresAt   time.Time
}

var lovelacesPerIndy = decimal.NewFromInt(1_000_000)

// Lovelaces is the INDY amount in its integer on-chain unit, rounded
// half to even like the claim system does.
func (e Event) Lovelaces() int64 {
	return e.Amount.Mul(lovelacesPerIndy).RoundBank(0).IntPart()
}
