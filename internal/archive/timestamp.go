package archive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp marks a message "ts" value that cannot be parsed.
// A corrupt timestamp breaks day ordering downstream, so parsing fails fast
// instead of guessing.
var ErrMalformedTimestamp = errors.New("malformed slack timestamp")

// ParseTS parses a Slack message timestamp ("1579000000.123456") into a UTC
// instant truncated to whole seconds. The value must contain exactly one "."
// with a numeric part on each side.
func ParseTS(raw string) (time.Time, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	secs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	return time.Unix(secs, 0).UTC(), nil
}

// DayKey formats an instant as the UTC calendar day used for both file names
// and day-boundary detection.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
