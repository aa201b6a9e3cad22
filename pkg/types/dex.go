package types

import (
	"fmt"
	"strings"
)

// Dex is a decentralized exchange hosting an iAsset/ADA liquidity pool.
type Dex string

const (
	Dex_Minswap    Dex = "Minswap"
	Dex_MuesliSwap Dex = "MuesliSwap"
	Dex_WingRiders Dex = "WingRiders"
)

func AllDexes() []Dex {
	return []Dex{Dex_Minswap, Dex_MuesliSwap, Dex_WingRiders}
}

func ParseDex(s string) (Dex, error) {
	for _, d := range AllDexes() {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown DEX '%s'", s)
}

func (d Dex) String() string {
	return string(d)
}
