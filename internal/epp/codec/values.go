package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ParseBool accepts the xsd:boolean lexical forms.
func ParseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalid, s)
}

// FormatFlag renders b as "1" or "0", the form EPP uses for attributes such as
// avail and flag.
func FormatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatBool renders b as "true" or "false".
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// FormatTime renders t as an xsd:dateTime in UTC with second precision.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ParseTime accepts xsd:dateTime values with or without fractional seconds.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a dateTime", ErrInvalid, s)
	}
	return t.UTC(), nil
}

// FormatDate renders the calendar date of t in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDate accepts an xsd:date value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrInvalid, s)
	}
	return t, nil
}

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalid, s)
	}
	return n, nil
}

// FormatDecimal renders d without dropping trailing zeros of its scale.
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
