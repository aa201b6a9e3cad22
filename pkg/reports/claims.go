package reports

import (
	"io"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/IndigoProtocol/indy-rewards/pkg/rewards"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// ClaimRow is one line of the CSV the claim portal imports. Amounts are
// integer lovelaces; the timestamps are minute-precision UTC.
type ClaimRow struct {
	Period      int64  `csv:"Period"`
	Address     string `csv:"Address"`
	Purpose     string `csv:"Purpose"`
	Date        string `csv:"Date"`
	Amount      int64  `csv:"Amount"`
	Expiration  string `csv:"Expiration"`
	AvailableAt string `csv:"AvailableAt"`
}

const (
	dayFormat    = "2006-01-02"
	minuteFormat = "2006-01-02 15:04"
)

// ClaimRows converts reward events into claim portal rows, preserving
// event order.
func ClaimRows(events []rewards.Event, cal *epochs.Calendar) []*ClaimRow {
	rows := make([]*ClaimRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, &ClaimRow{
			Period:      cal.SundaeImportPeriod(e.Day),
			Address:     e.Pkh,
			Purpose:     e.Purpose.Label(),
			Date:        e.Day.Format(dayFormat),
			Amount:      e.Lovelaces(),
			Expiration:  e.ExpiresAt.Format(minuteFormat),
			AvailableAt: e.AvailableAt.Format(minuteFormat),
		})
	}
	return rows
}

// WriteClaimCsv writes events as claim portal CSV, header included.
func WriteClaimCsv(w io.Writer, events []rewards.Event, cal *epochs.Calendar) error {
	rows := ClaimRows(events, cal)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.Wrap(err, "failed to write claim csv")
	}
	return nil
}
