package epochs

import "time"

// Config pins down the protocol's epoch geometry. Epochs are counted from
// a reference date well before the protocol launch, so live epoch numbers
// match the ones chain explorers show.
type Config struct {
	ReferenceDate   time.Time
	EpochLengthDays int
	SnapshotHour    int
	SnapshotMinute  int
	UnlockDelay     time.Duration
	ExpiryDays      int
}

func DefaultConfig() *Config {
	return &Config{
		ReferenceDate:   Day(2017, time.September, 23),
		EpochLengthDays: 5,
		SnapshotHour:    21,
		SnapshotMinute:  45,
		UnlockDelay:     time.Hour + 15*time.Minute,
		ExpiryDays:      90,
	}
}

// Day builds a UTC midnight time. Days are passed around as midnight
// times so they stay comparable and usable as map keys.
func Day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates a time to its UTC date.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return Day(u.Year(), u.Month(), u.Day())
}

type Calendar struct {
	config *Config
}

func NewCalendar(cfg *Config) *Calendar {
	return &Calendar{config: cfg}
}

// EpochOf returns the epoch a day falls in. An epoch's transition day
// still counts into the epoch before the transition.
func (c *Calendar) EpochOf(day time.Time) int64 {
	daysDiff := daysBetween(c.config.ReferenceDate, Midnight(day)) - 1
	return floorDiv(daysDiff, int64(c.config.EpochLengthDays))
}

// EpochEndDate returns the UTC date of the epoch's last block.
func (c *Calendar) EpochEndDate(epoch int64) time.Time {
	return c.config.ReferenceDate.AddDate(0, 0, int(epoch+1)*c.config.EpochLengthDays)
}

func (c *Calendar) EpochFirstSnapshotDate(epoch int64) time.Time {
	return c.EpochEndDate(epoch).AddDate(0, 0, -(c.config.EpochLengthDays - 1))
}

// EpochSnapshotDates returns the epoch's snapshot days in ascending order.
func (c *Calendar) EpochSnapshotDates(epoch int64) []time.Time {
	end := c.EpochEndDate(epoch)
	dates := make([]time.Time, 0, c.config.EpochLengthDays)
	for i := c.config.EpochLengthDays - 1; i >= 0; i-- {
		dates = append(dates, end.AddDate(0, 0, -i))
	}
	return dates
}

// DaysPerEpoch returns how many snapshot days one epoch spans.
func (c *Calendar) DaysPerEpoch() int {
	return c.config.EpochLengthDays
}

// SnapshotTime is the moment on a day when balances are sampled.
func (c *Calendar) SnapshotTime(day time.Time) time.Time {
	m := Midnight(day)
	return m.Add(time.Duration(c.config.SnapshotHour)*time.Hour + time.Duration(c.config.SnapshotMinute)*time.Minute)
}

func (c *Calendar) SnapshotUnix(day time.Time) int64 {
	return c.SnapshotTime(day).Unix()
}

// RewardUnlockTime is when rewards earned on a day become claimable:
// a fixed delay after the closing snapshot of the day's epoch.
func (c *Calendar) RewardUnlockTime(day time.Time) time.Time {
	epochEnd := c.EpochEndDate(c.EpochOf(day))
	return c.SnapshotTime(epochEnd).Add(c.config.UnlockDelay)
}

// RewardExpiration is the time after which a day's reward is no longer
// claimable. The vesting window is anchored to the epoch end, so every
// day of an epoch expires together.
func (c *Calendar) RewardExpiration(day time.Time) time.Time {
	expiryDay := c.EpochEndDate(c.EpochOf(day)).AddDate(0, 0, c.config.ExpiryDays)
	return c.SnapshotTime(expiryDay)
}

// SundaeImportPeriod is the period number SundaeSwap's claim portal
// expects for a reward day, offset by one from the epoch.
func (c *Calendar) SundaeImportPeriod(day time.Time) int64 {
	return c.EpochOf(day) + 1
}

func (c *Calendar) IsFutureSnapshot(day time.Time) bool {
	return c.SnapshotTime(day).After(time.Now().UTC())
}

func daysBetween(from time.Time, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}

func floorDiv(a int64, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
