package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Work-calendar model: an 8 hour day, a 5 day week.
const (
	minutesPerDay  = 8 * 60
	minutesPerWeek = 5 * minutesPerDay
)

var (
	hoursMinutesPattern = regexp.MustCompile(`^(\d{1,3}):(\d{1,2})$`)
	durationToken       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(w|sem|semanas?|d|dias?|day|h|hr|hrs|horas?|m|min|mins|minutos?)`)
)

// ParseDurationToMinutes converts a free-text duration such as "2h 30m",
// "1,5h", "1:45", "2d" or a plain number of hours into whole minutes.
// Unparseable input yields 0 rather than an error; estimate fields are
// free-text and silently defaulting is the documented policy.
func ParseDurationToMinutes(text string) int {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")

	if m := hoursMinutesPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return h*60 + min
	}

	total := 0.0
	matched := false
	for _, tok := range durationToken.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(tok[1], 64)
		if err != nil {
			continue
		}
		matched = true
		switch unit := tok[2]; {
		case strings.HasPrefix(unit, "w") || strings.HasPrefix(unit, "sem"):
			total += n * minutesPerWeek
		case strings.HasPrefix(unit, "d"):
			total += n * minutesPerDay
		case strings.HasPrefix(unit, "h"):
			total += n * 60
		default:
			total += n
		}
	}
	if matched {
		return int(math.Round(total))
	}

	// No unit token at all: a bare number means hours.
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return int(math.Round(n * 60))
	}
	return 0
}

// FormatMinutes renders minutes as a compact "Nd Nh Nm" string using the
// 8 hour workday. Zero segments are omitted except that the minutes segment
// always appears when nothing else does, so 0 renders as "0m".
func FormatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	d := total / minutesPerDay
	rest := total % minutesPerDay
	h := rest / 60
	m := rest % 60

	parts := make([]string, 0, 3)
	if d > 0 {
		parts = append(parts, strconv.Itoa(d)+"d")
	}
	if h > 0 {
		parts = append(parts, strconv.Itoa(h)+"h")
	}
	if m > 0 || len(parts) == 0 {
		parts = append(parts, strconv.Itoa(m)+"m")
	}
	return strings.Join(parts, " ")
}
