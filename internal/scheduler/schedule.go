package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// IntervalSchedule runs a task at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Every creates an interval schedule.
func Every(d time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: d}
}

// Next returns the next run time.
func (s *IntervalSchedule) Next(after time.Time) time.Time {
	return after.Add(s.Interval)
}

// DailySchedule runs a task at a specific time each day.
type DailySchedule struct {
	Hour   int
	Minute int
}

// Daily creates a daily schedule at the specified time.
func Daily(hour, minute int) *DailySchedule {
	return &DailySchedule{Hour: hour, Minute: minute}
}

// Next returns the next run time.
func (s *DailySchedule) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, s.Minute, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// cronParser accepts the classic five fields plus @descriptors like
// @daily and @every 1h.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronSchedule wraps a parsed cron expression.
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
}

// Cron parses a five-field cron expression ("0 2 * * *") or a
// descriptor ("@hourly", "@every 30m") into a schedule.
func Cron(expr string) (*CronSchedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &CronSchedule{expr: expr, schedule: schedule}, nil
}

// MustCron parses a cron expression and panics on error.
func MustCron(expr string) *CronSchedule {
	s, err := Cron(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the next run time.
func (s *CronSchedule) Next(after time.Time) time.Time {
	return s.schedule.Next(after)
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.expr
}

// ParseSchedule turns a config schedule string into a Schedule. A Go
// duration ("30m", "1h") becomes an interval; anything else must parse
// as a cron expression.
func ParseSchedule(expr string) (Schedule, error) {
	if d, err := time.ParseDuration(expr); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive, got %s", expr)
		}
		return Every(d), nil
	}
	return Cron(expr)
}
