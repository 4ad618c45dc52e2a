package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field expressions and descriptors such as
// "@hourly" or "@every 10m", matching what cron.New schedules.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCronSchedule reports whether schedule can be parsed by the scheduler.
//
// Example:
//
//	if err := ValidateCronSchedule("@every 10m"); err != nil {
//	    return fmt.Errorf("invalid purge schedule: %w", err)
//	}
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone reports whether name is a loadable IANA timezone.
func ValidateTimezone(name string) error {
	if name == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", name, err)
	}
	return nil
}
