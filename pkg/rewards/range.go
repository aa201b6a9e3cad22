package rewards

import (
	"fmt"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
)

// Range selects either a single UTC day or one whole epoch.
type Range struct {
	day   *time.Time
	epoch *int64
}

func DayRange(day time.Time) Range {
	d := epochs.Midnight(day)
	return Range{day: &d}
}

func EpochRange(epoch int64) Range {
	e := epoch
	return Range{epoch: &e}
}

func (r Range) IsEpoch() bool {
	return r.epoch != nil
}

func (r Range) Epoch(cal *epochs.Calendar) int64 {
	if r.epoch != nil {
		return *r.epoch
	}
	return cal.EpochOf(*r.day)
}

// Days expands the range into the snapshot days it covers, ascending.
func (r Range) Days(cal *epochs.Calendar) []time.Time {
	if r.epoch != nil {
		return cal.EpochSnapshotDates(*r.epoch)
	}
	return []time.Time{*r.day}
}

func (r Range) String() string {
	if r.epoch != nil {
		return fmt.Sprintf("epoch %d", *r.epoch)
	}
	return r.day.Format("2006-01-02")
}
