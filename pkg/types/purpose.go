package types

import "fmt"

type RewardProgram string

const (
	RewardProgram_Governance    RewardProgram = "governance"
	RewardProgram_StabilityPool RewardProgram = "stabilityPool"
	RewardProgram_LiquidityPool RewardProgram = "liquidityPool"
)

// Purpose says which program a reward came from and, where applicable,
// for which pool. Implementations are small comparable value types so a
// Purpose can key a map.
type Purpose interface {
	Program() RewardProgram

	// Label is the human-readable purpose line shown next to each reward.
	Label() string

	// CategoryTotalLabel is the label of the per-program total row the
	// reward rolls up into.
	CategoryTotalLabel() string
}

type GovernanceStaking struct{}

func (GovernanceStaking) Program() RewardProgram {
	return RewardProgram_Governance
}

func (GovernanceStaking) Label() string {
	return "INDY staking reward"
}

func (GovernanceStaking) CategoryTotalLabel() string {
	return "Total INDY staking reward"
}

type SingleStaking struct {
	IAsset IAsset
}

func (p SingleStaking) Program() RewardProgram {
	return RewardProgram_StabilityPool
}

func (p SingleStaking) Label() string {
	return fmt.Sprintf("SP reward for %s", p.IAsset)
}

func (p SingleStaking) CategoryTotalLabel() string {
	return "Total SP reward"
}

type LiquidityProvision struct {
	IAsset IAsset
	Dex    Dex
}

func (p LiquidityProvision) Program() RewardProgram {
	return RewardProgram_LiquidityPool
}

func (p LiquidityProvision) Label() string {
	return fmt.Sprintf("Reward for providing %s liquidity on %s", p.IAsset, p.Dex)
}

func (p LiquidityProvision) CategoryTotalLabel() string {
	return "Total LP reward"
}
