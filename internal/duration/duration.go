// Package duration converts between compact human-readable duration strings
// such as "1d 2h 30m" and time.Duration values.
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is the length of the "d" unit.
const Day = 24 * time.Hour

// Layout selects how Format renders a duration.
type Layout int

const (
	// LayoutDefault prints days, hours, minutes and seconds, skipping zero
	// components. Seconds are dropped when more than two components are set.
	LayoutDefault Layout = iota
	// LayoutHM always prints total hours and minutes, e.g. "26h 5m" or "0h 40m".
	LayoutHM
	// LayoutExact prints every non-zero component, seconds included, so the
	// text parses back to the same whole-second value.
	LayoutExact
)

// ParseLayout maps a layout name ("", "dhms", "hm") to a Layout.
func ParseLayout(name string) Layout {
	if strings.EqualFold(strings.TrimSpace(name), "hm") {
		return LayoutHM
	}
	return LayoutDefault
}

// tokenRe captures the whole run in front of each unit marker so that a
// malformed magnitude such as "1.5" or "-3" is rejected rather than trimmed.
var tokenRe = regexp.MustCompile(`([^\sdhms]+)([dhms])`)

var unitSize = map[string]time.Duration{
	"d": Day,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// Parse reads a string of integer magnitudes each immediately followed by one
// of the unit markers d, h, m or s. Units may appear in any order and with or
// without whitespace between them; missing units count as zero.
//
// When a unit appears more than once the last occurrence wins. A token whose
// magnitude is not a plain non-negative integer, or does not fit a
// time.Duration, gives no value for its unit. Parse never fails: text without
// any valid token yields zero.
func Parse(text string) time.Duration {
	values := make(map[string]int64, 4)
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseUint(m[1], 10, 63)
		if err != nil || n > uint64(math.MaxInt64/unitSize[m[2]]) {
			continue
		}
		values[m[2]] = int64(n)
	}

	var d time.Duration
	for unit, n := range values {
		d += time.Duration(n) * unitSize[unit]
	}
	return d
}

// ParsePtr is Parse for optional fields: blank text yields nil, so "not
// recorded" stays distinct from "recorded as zero".
func ParsePtr(text string) *time.Duration {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	d := Parse(text)
	return &d
}

// Format renders d with the default layout. Zero formats as "".
func Format(d time.Duration) string {
	return FormatLayout(d, LayoutDefault)
}

// FormatPtr formats an optional duration; nil formats as "".
func FormatPtr(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return Format(*d)
}

// FormatExact renders d with LayoutExact.
func FormatExact(d time.Duration) string {
	return FormatLayout(d, LayoutExact)
}

// FormatExactPtr is FormatExact for optional fields; nil formats as "".
func FormatExactPtr(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return FormatExact(*d)
}

// FormatLayout renders d with the given layout. Sub-second precision is
// truncated and negative values get a "-" prefix.
func FormatLayout(d time.Duration, layout Layout) string {
	secs := int64(d / time.Second)
	if secs == 0 {
		return ""
	}
	prefix := ""
	if secs < 0 {
		prefix = "-"
		secs = -secs
	}

	if layout == LayoutHM {
		return fmt.Sprintf("%s%dh %dm", prefix, secs/3600, (secs%3600)/60)
	}

	parts := [4]int64{
		secs / 86400,
		(secs % 86400) / 3600,
		(secs % 3600) / 60,
		secs % 60,
	}
	nonZero := 0
	for _, p := range parts {
		if p != 0 {
			nonZero++
		}
	}
	if nonZero > 2 && layout != LayoutExact {
		parts[3] = 0
	}

	units := [4]string{"d", "h", "m", "s"}
	var out []string
	for i, p := range parts {
		if p != 0 {
			out = append(out, strconv.FormatInt(p, 10)+units[i])
		}
	}
	return prefix + strings.Join(out, " ")
}

// Sign tells whether a difference is negative.
type Sign int

const (
	Positive Sign = iota
	Negative
)

// String returns the display prefix for the sign: "-" or "".
func (s Sign) String() string {
	if s == Negative {
		return "-"
	}
	return ""
}

// Subtract returns |a - b| together with the sign of a - b.
func Subtract(a, b time.Duration) (time.Duration, Sign) {
	diff := a - b
	if diff < 0 {
		return -diff, Negative
	}
	return diff, Positive
}

// FormatDiff formats a - b, prefixed with "-" when the result is negative.
func FormatDiff(a, b time.Duration) string {
	mag, sign := Subtract(a, b)
	s := Format(mag)
	if s == "" {
		return ""
	}
	return sign.String() + s
}
