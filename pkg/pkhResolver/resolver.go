package pkhResolver

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// NoMatchError means a requested prefix matched no wallet at all. A typoed
// prefix fails loudly instead of silently narrowing the result set.
type NoMatchError struct {
	Partial string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no wallet matches prefix '%s'", e.Partial)
}

// AmbiguousPrefixError means a prefix matched more than one wallet.
type AmbiguousPrefixError struct {
	Partial string
	Count   int
}

func (e *AmbiguousPrefixError) Error() string {
	return fmt.Sprintf("prefix '%s' matches %d wallets, use a longer prefix", e.Partial, e.Count)
}

type Resolver struct {
	logger *zap.Logger
}

func NewResolver(l *zap.Logger) *Resolver {
	return &Resolver{logger: l}
}

// Resolve expands case-insensitive wallet prefixes against the wallets
// present in a data set. Each partial must identify exactly one wallet.
// The result is the deduplicated union of all matches, sorted. With no
// partials the full wallet set is returned unchanged.
//
// An empty string partial prefixes every wallet, so it resolves only
// when the set holds a single wallet and is ambiguous otherwise.
func (r *Resolver) Resolve(partials []string, wallets []string) ([]string, error) {
	if len(partials) == 0 {
		return wallets, nil
	}

	unique := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		unique[w] = struct{}{}
	}

	resolved := make(map[string]struct{})
	for _, partial := range partials {
		lowered := strings.ToLower(partial)

		var matches []string
		for w := range unique {
			if strings.HasPrefix(strings.ToLower(w), lowered) {
				matches = append(matches, w)
			}
		}

		switch len(matches) {
		case 0:
			return nil, &NoMatchError{Partial: partial}
		case 1:
			resolved[matches[0]] = struct{}{}
		default:
			r.logger.Sugar().Debugw("Ambiguous wallet prefix",
				zap.String("partial", partial),
				zap.Int("matches", len(matches)),
			)
			return nil, &AmbiguousPrefixError{Partial: partial, Count: len(matches)}
		}
	}

	out := make([]string, 0, len(resolved))
	for w := range resolved {
		out = append(out, w)
	}
	sort.Strings(out)
	return out, nil
}
