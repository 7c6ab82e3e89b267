package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"

	secondsPerDay = 24 * 60 * 60
)

// Clock is a time of day expressed in seconds since midnight
type Clock int

// ClockOf returns the time of day of t in t's own location
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// NewClock builds a Clock from its components
func NewClock(hour, minute, second int) Clock {
	return Clock(hour*3600 + minute*60 + second)
}

// ParseClock parses "HH:MM:SS", "HH:MM" or "H:MM" into a Clock
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return NewClock(values[0], values[1], values[2]), nil
}

func (c Clock) Hour() int   { return int(c) / 3600 }
func (c Clock) Minute() int { return (int(c) % 3600) / 60 }
func (c Clock) Second() int { return int(c) % 60 }

// String formats the clock as HH:MM:SS
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// RoundClock snaps a time of day to a scheduling boundary.
// Minutes 0-5 go to :00 of the same hour, minutes 6-59 go to :30 of the same
// hour. The hour never changes, so 23:58 becomes 23:30.
func RoundClock(c Clock) Clock {
	if c.Minute() <= 5 {
		return NewClock(c.Hour(), 0, 0)
	}
	return NewClock(c.Hour(), 30, 0)
}

// ElapsedMinutes returns the minutes from start to end, assuming the shift
// crossed midnight when end is earlier than start
func ElapsedMinutes(start, end Clock) int {
	diff := int(end) - int(start)
	if diff < 0 {
		diff += secondsPerDay
	}
	return diff / 60
}

// FormatMinutes formats a minute count as HH:MM. Negative values clamp to 00:00.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseMinutes parses an HH:MM duration back into minutes
func ParseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	hours, minutes, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return h*60 + m, nil
}
