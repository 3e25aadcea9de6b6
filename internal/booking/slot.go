package booking

import (
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// NormalizeDate validates a YYYY-MM-DD date and returns it in canonical
// form.
func NormalizeDate(s string) (string, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", validationFailure("date %q must be in YYYY-MM-DD format", s)
	}
	return d.Format(dateLayout), nil
}

// NormalizeTime validates an HH:MM time of day and returns it zero
// padded, so "7:05" becomes "07:05".
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", validationFailure("time %q must be in HH:MM format", s)
	}
	return t.Format(timeLayout), nil
}

// minuteOfDay converts a canonical HH:MM string to minutes past midnight.
func minuteOfDay(tm string) int {
	t, err := time.Parse(timeLayout, tm)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

func formatMinute(m int) string {
	return time.Date(2000, 1, 1, m/60, m%60, 0, 0, time.UTC).Format(timeLayout)
}
