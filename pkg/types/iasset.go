package types

import (
	"fmt"
	"strings"
)

// IAsset is a synthetic asset minted against CDP collateral.
type IAsset string

const (
	IAsset_iBTC IAsset = "iBTC"
	IAsset_iETH IAsset = "iETH"
	IAsset_iUSD IAsset = "iUSD"
)

func AllIAssets() []IAsset {
	return []IAsset{IAsset_iBTC, IAsset_iETH, IAsset_iUSD}
}

// ParseIAsset resolves a user-supplied name, ignoring case.
func ParseIAsset(s string) (IAsset, error) {
	for _, a := range AllIAssets() {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown iAsset '%s'", s)
}

func (a IAsset) String() string {
	return string(a)
}
