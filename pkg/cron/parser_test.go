package cron_test

import (
	"testing"
	"time"

	"github.com/absmach/federator/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 7, 30, 0, time.UTC)

	cases := []struct {
		desc     string
		expr     string
		timezone string
		next     time.Time
		err      error
	}{
		{
			desc: "every five minutes",
			expr: "*/5 * * * *",
			next: time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC),
		},
		{
			desc: "hourly descriptor",
			expr: "@hourly",
			next: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			desc:     "unknown timezone falls back to UTC",
			expr:     "0 12 * * *",
			timezone: "Nowhere/Atlantis",
			next:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			desc: "empty expression",
			expr: "",
			err:  cron.ErrInvalidCronExpression,
		},
		{
			desc: "seconds field is not accepted",
			expr: "0 */5 * * * *",
			err:  cron.ErrInvalidCronExpression,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			s, err := cron.Parse(tc.expr, tc.timezone)
			assert.ErrorIs(t, err, tc.err)
			if tc.err != nil {
				return
			}
			require.NotNil(t, s)
			assert.True(t, tc.next.Equal(s.Next(from)), "got %s", s.Next(from))
			assert.Equal(t, tc.expr, s.String())
		})
	}
}
