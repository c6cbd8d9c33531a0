package config

import (
	"strconv"
	"time"

	"github.com/hako/durafmt"
)

// Duration is a wrapper for time.Duration to support yaml unmarshalling
type Duration time.Duration

// ToDuration converts Duration to time.Duration
func (c Duration) ToDuration() time.Duration {
	return time.Duration(c)
}

// IsAtLeastZero returns true if duration is greater or equal to zero.
func (c Duration) IsAtLeastZero() bool {
	return c.ToDuration() >= 0
}

// String implements `fmt.Stringer`
func (c Duration) String() string {
	return durafmt.Parse(c.ToDuration()).String()
}

// UnmarshalText implements `encoding.TextUnmarshaler`.
func (c *Duration) UnmarshalText(data []byte) error {
	input := string(data)

	// number without unit: seconds, like TTLs in zone files
	if seconds, err := strconv.Atoi(input); err == nil {
		*c = Duration(time.Duration(seconds) * time.Second)

		return nil
	}

	duration, err := time.ParseDuration(input)
	if err != nil {
		return err
	}

	*c = Duration(duration)

	return nil
}
