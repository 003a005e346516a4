package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var costNoisePattern = regexp.MustCompile(`[^0-9.,\-]`)

// CalculateCost returns the monetary cost of a free-text duration at the
// given hourly rate. No rounding happens here; formatting is the caller's
// concern.
func CalculateCost(hourlyRate float64, duration string) float64 {
	return hourlyRate * float64(ParseDurationToMinutes(duration)) / 60
}

// ParseCost recovers a number from a previously formatted cost string such
// as "R$ 1.234,56" or "$1,234.56". Both comma-decimal and dot-decimal
// conventions are accepted; when both separators appear, the rightmost one
// is taken as the decimal separator. Unparseable input yields 0.
func ParseCost(text string) float64 {
	s := costNoisePattern.ReplaceAllString(text, "")
	if s == "" {
		return 0
	}
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
