package cron

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Schedule computes activation times from a standard five field expression.
type Schedule struct {
	expr  string
	sched cron.Schedule
	loc   *time.Location
}

// Parse parses expr in timezone. An empty or unknown timezone means UTC.
func Parse(expr, timezone string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronExpression, err)
	}

	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}

	return &Schedule{expr: expr, sched: sched, loc: loc}, nil
}

// Next returns the first activation strictly after from.
func (s *Schedule) Next(from time.Time) time.Time {
	if s == nil || s.sched == nil {
		return time.Time{}
	}

	return s.sched.Next(from.In(s.loc))
}

func (s *Schedule) String() string {
	if s == nil {
		return ""
	}

	return s.expr
}
