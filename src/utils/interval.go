package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeInterval represents a parsed interval with years, months, weeks, and days.
type TimeInterval struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

var intervalPattern = regexp.MustCompile(`^(?:(\d+)y)?:?(?:(\d+)m)?:?(?:(\d+)w)?:?(?:(\d+)d)?$`)

// ParseTimeInterval parses a string in the format "1y:2m:1w:3d". Every part is optional but at least one is required.
func ParseTimeInterval(intervalStr string) (*TimeInterval, error) {
	match := intervalPattern.FindStringSubmatch(intervalStr)
	if match == nil {
		return nil, fmt.Errorf("invalid interval %q", intervalStr)
	}

	var parts [4]int
	found := false
	for i, group := range match[1:] {
		if group == "" {
			continue
		}
		n, err := strconv.Atoi(group)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", intervalStr, err)
		}
		parts[i] = n
		found = true
	}
	if !found {
		return nil, fmt.Errorf("invalid interval %q", intervalStr)
	}

	return &TimeInterval{Years: parts[0], Months: parts[1], Weeks: parts[2], Days: parts[3]}, nil
}

// Before returns t moved back by the interval using calendar arithmetic.
func (ti *TimeInterval) Before(t time.Time) time.Time {
	return t.AddDate(-ti.Years, -ti.Months, -(ti.Weeks*7 + ti.Days))
}

// ToDuration converts the weeks and days to a time.Duration, ignoring years and months since they vary.
func (ti *TimeInterval) ToDuration() time.Duration {
	totalDays := ti.Days + (ti.Weeks * 7)
	return time.Duration(totalDays) * 24 * time.Hour
}
