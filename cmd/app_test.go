package cmd

import (
	"testing"
	"time"

	"github.com/IndigoProtocol/indy-rewards/pkg/epochs"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func Test_ParseRange(t *testing.T) {
	cal := epochs.NewCalendar(epochs.DefaultConfig())

	t.Run("Test that an integer argument selects an epoch", func(t *testing.T) {
		rng, err := parseRange("415")
		assert.Nil(t, err)
		assert.True(t, rng.IsEpoch())
		assert.Equal(t, int64(415), rng.Epoch(cal))
	})

	t.Run("Test that a date argument selects a single day", func(t *testing.T) {
		rng, err := parseRange("2023-03-22")
		assert.Nil(t, err)
		assert.False(t, rng.IsEpoch())
		assert.Equal(t, []time.Time{epochs.Day(2023, 3, 22)}, rng.Days(cal))
	})

	t.Run("Test that anything else is refused", func(t *testing.T) {
		for _, arg := range []string{"yesterday", "2023/03/22", "2023-3-22", ""} {
			_, err := parseRange(arg)
			assert.Error(t, err, arg)
		}
	})
}

func Test_ParseIndyOverride(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("indy", "", "")
		return c
	}

	t.Run("Test that an empty flag means no override", func(t *testing.T) {
		amount, err := parseIndyOverride(newCmd(), "indy")
		assert.Nil(t, err)
		assert.Nil(t, amount)
	})

	t.Run("Test that a decimal amount is parsed", func(t *testing.T) {
		c := newCmd()
		assert.Nil(t, c.Flags().Set("indy", "6046.11"))
		amount, err := parseIndyOverride(c, "indy")
		assert.Nil(t, err)
		assert.Equal(t, "6046.11", amount.String())
	})

	t.Run("Test that garbage and negative amounts are refused", func(t *testing.T) {
		for _, raw := range []string{"lots", "-1"} {
			c := newCmd()
			assert.Nil(t, c.Flags().Set("indy", raw))
			_, err := parseIndyOverride(c, "indy")
			assert.Error(t, err, raw)
		}
	})
}
