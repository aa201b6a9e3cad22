package rewards

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"go.uber.org/zap"
)

// Ledger turns raw provider records into fully materialized reward
// events, one provider fetch per snapshot day.
type Ledger struct {
	provider EventProvider
	calendar *epochs.Calendar
	logger   *zap.Logger
}

func NewLedger(provider EventProvider, cal *epochs.Calendar, l *zap.Logger) *Ledger {
	return &Ledger{
		provider: provider,
		calendar: cal,
		logger:   l,
	}
}

// BuildEvents fetches and materializes all reward events of a range.
// Day fetches run concurrently; results keep day order, then the
// provider's order within a day, so output is deterministic.
func (l *Ledger) BuildEvents(ctx context.Context, rng Range, filter ProgramFilter) ([]Event, error) {
	days := rng.Days(l.calendar)

	fetched := make([][]RawEvent, len(days))
	fetchErrors := make([]error, len(days))

	wg := sync.WaitGroup{}
	for i, day := range days {
		wg.Add(1)
		go func(index int, day time.Time) {
			defer wg.Done()
			raw, err := l.provider.FetchRewardEvents(ctx, day, filter)
			if err != nil {
				fetchErrors[index] = wrapFetchError(day, err)
				return
			}
			fetched[index] = raw
		}(i, day)
	}
	wg.Wait()

	for _, err := range fetchErrors {
		if err != nil {
			l.logger.Sugar().Errorw("Failed to fetch reward events",
				zap.String("range", rng.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	events := make([]Event, 0)
	for _, raws := range fetched {
		for _, raw := range raws {
			events = append(events, Event{
				Pkh:         raw.Pkh,
				Purpose:     raw.Purpose,
				Day:         raw.Day,
				Epoch:       l.calendar.EpochOf(raw.Day),
				Amount:      raw.Amount,
				AvailableAt: l.calendar.RewardUnlockTime(raw.Day),
				ExpiresAt:   l.calendar.RewardExpiration(raw.Day),
			})
		}
	}

	l.logger.Sugar().Debugw("Built reward events",
		zap.String("range", rng.String()),
		zap.Int("count", len(events)),
	)
	return events, nil
}

// Wallets returns the distinct wallet identifiers present in events.
func Wallets(events []Event) []string {
	seen := make(map[string]struct{}, len(events))
	wallets := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.Pkh]; ok {
			continue
		}
		seen[e.Pkh] = struct{}{}
		wallets = append(wallets, e.Pkh)
	}
	return wallets
}

func wrapFetchError(day time.Time, err error) error {
	var pfe *ProviderFetchError
	if errors.As(err, &pfe) {
		return err
	}
	return &ProviderFetchError{Day: day, Err: err}
}
