package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateDurationRange requires lo <= d <= hi.
//
//	if err := ValidateDurationRange(timeout, time.Second, 5*time.Minute); err != nil {
//	    return fmt.Errorf("LLM_TIMEOUT: %w", err)
//	}
func ValidateDurationRange(d, lo, hi time.Duration) error {
	if d < lo || d > hi {
		return fmt.Errorf("duration %v outside [%v, %v]", d, lo, hi)
	}
	return nil
}

// ValidateNonNegativeDuration accepts zero, meaning "disabled".
func ValidateNonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration must not be negative, got %v", d)
	}
	return nil
}
