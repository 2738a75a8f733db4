package preferences

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseMinute reads a notification time given as "HH:MM" or an integer minute
// of day and returns the minute of day.
func ParseMinute(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errInvalidTime
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errInvalidTime
		}
		return parseClock(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errInvalidTime
	}
	m, err := strconv.Atoi(n.String())
	if err != nil || m < 0 || m >= minutesPerDay {
		return 0, errInvalidTime
	}
	return m, nil
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || len(hh) < 1 || len(hh) > 2 {
		return 0, errInvalidTime
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errInvalidTime
	}
	return h*60 + m, nil
}

// FormatMinute renders a minute of day as "HH:MM".
func FormatMinute(m int) string {
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
