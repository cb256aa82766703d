// Package datefmt renders dates from log4j-style patterns such as "yyyy-MM-dd HH:mm:ss,S".
//
// A pattern is either one of the predefined aliases (DEFAULT, ABSOLUTE, COMPACT,
// DATE, ISO8601, ISO8601_BASIC) or a literal pattern. A literal pattern that
// starts with "UTC:" is rendered in UTC; alias names are resolved before that
// check, so "UTC:ISO8601" is treated as a literal pattern, not as a UTC alias.
package datefmt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Predefined pattern aliases
const (
	Default      = "DEFAULT"
	Absolute     = "ABSOLUTE"
	Compact      = "COMPACT"
	Date         = "DATE"
	ISO8601      = "ISO8601"
	ISO8601Basic = "ISO8601_BASIC"
)

// utcPrefix switches a literal pattern to UTC components
const utcPrefix = "UTC:"

var predefined = map[string]string{
	Default:      "yyyy-MM-dd HH:mm:ss,S",
	Absolute:     "HH:MM:ss,S", // month in the middle field
	Compact:      "yyyyMMddHHmmssS",
	Date:         "dd MMM yyyy HH:mm:ss,S",
	ISO8601:      "yyyy-MM-ddTHH:mm:ss,S",
	ISO8601Basic: "yyyyMMddTHHmmss,S",
}

// Abbreviated names first, full names after (offset +7 for days, +12 for months)
var (
	dayNames = [...]string{
		"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat",
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	}
	monthNames = [...]string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
)

var (
	tokenRegex    = regexp.MustCompile(`d{1,4}|M{1,4}|yy(?:yy)?|HH?|hh?|mm?|ss?|AA?|aa?|[LloSZ]|'[^']*'`)
	timezoneRegex = regexp.MustCompile(`\b(?:[PMCEA][SDP]T|(?:Pacific|Mountain|Central|Eastern|Atlantic) (?:Standard|Daylight|Prevailing) Time|(?:GMT|UTC)(?:[-+]\d{4})?)\b`)
	timezoneClip  = regexp.MustCompile(`[^-+\dA-Z]`)
)

// zoneLayout mirrors the textual date rendering the timezone regex was written against
const zoneLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// Aliases returns a copy of the predefined alias table
func Aliases() map[string]string {
	out := make(map[string]string, len(predefined))
	for k, v := range predefined {
		out[k] = v
	}
	return out
}

// Pad left-pads the decimal representation of value with zeros up to length.
// A zero length means 2.
func Pad(value, length int) string {
	if length == 0 {
		length = 2
	}
	s := strconv.Itoa(value)
	if len(s) >= length {
		return s
	}
	return strings.Repeat("0", length-len(s)) + s
}

// Format renders t using a pattern or alias. An empty mask uses the DEFAULT pattern.
// Tokens that are not recognised, and quoted runs, pass through unchanged.
func Format(t time.Time, mask string) string {
	if p, ok := predefined[mask]; ok {
		mask = p
	} else if mask == "" {
		mask = predefined[Default]
	}

	isUTC := strings.HasPrefix(mask, utcPrefix)
	if isUTC {
		mask = mask[len(utcPrefix):]
		t = t.UTC()
	}

	c := components(t, isUTC)
	return tokenRegex.ReplaceAllStringFunc(mask, c.flag)
}

// dateComponents holds the values read once per Format call
type dateComponents struct {
	t            time.Time
	utc          bool
	day          int
	weekday      int
	month        int
	year         int
	hours        int
	minutes      int
	seconds      int
	milliseconds int
	offset       int // minutes, positive west of UTC
}

func components(t time.Time, utc bool) dateComponents {
	_, zoneSeconds := t.Zone()
	c := dateComponents{
		t:            t,
		utc:          utc,
		day:          t.Day(),
		weekday:      int(t.Weekday()),
		month:        int(t.Month()) - 1,
		year:         t.Year(),
		hours:        t.Hour(),
		minutes:      t.Minute(),
		seconds:      t.Second(),
		milliseconds: t.Nanosecond() / int(time.Millisecond),
	}
	if !utc {
		c.offset = -zoneSeconds / 60
	}
	return c
}

func (c dateComponents) flag(token string) string {
	switch token {
	case "d":
		return strconv.Itoa(c.day)
	case "dd":
		return Pad(c.day, 2)
	case "ddd":
		return dayNames[c.weekday]
	case "dddd":
		return dayNames[c.weekday+7]
	case "M":
		return strconv.Itoa(c.month + 1)
	case "MM":
		return Pad(c.month+1, 2)
	case "MMM":
		return monthNames[c.month]
	case "MMMM":
		return monthNames[c.month+12]
	case "yy":
		if y := strconv.Itoa(c.year); len(y) > 2 {
			return y[2:]
		}
		return ""
	case "yyyy":
		return strconv.Itoa(c.year)
	case "h":
		return strconv.Itoa(c.hours12())
	case "hh":
		return Pad(c.hours12(), 2)
	case "H":
		return strconv.Itoa(c.hours)
	case "HH":
		return Pad(c.hours, 2)
	case "m":
		return strconv.Itoa(c.minutes)
	case "mm":
		return Pad(c.minutes, 2)
	case "s":
		return strconv.Itoa(c.seconds)
	case "ss":
		return Pad(c.seconds, 2)
	case "S":
		return Pad(c.milliseconds, 1)
	case "a":
		return c.meridiem("a", "p")
	case "aa":
		return c.meridiem("am", "pm")
	case "A":
		return c.meridiem("A", "P")
	case "AA":
		return c.meridiem("AM", "PM")
	case "Z":
		return c.zone()
	case "o":
		return c.numericOffset()
	}
	return token
}

func (c dateComponents) hours12() int {
	if h := c.hours % 12; h != 0 {
		return h
	}
	return 12
}

func (c dateComponents) meridiem(am, pm string) string {
	if c.hours < 12 {
		return am
	}
	return pm
}

// zone extracts a timezone name on a best-effort basis. Times in the UTC
// location render "UTC" even outside UTC mode, not "GMT+0000".
func (c dateComponents) zone() string {
	if c.utc {
		return "UTC"
	}
	matches := timezoneRegex.FindAllString(c.t.Format(zoneLayout), -1)
	if len(matches) == 0 {
		return ""
	}
	return timezoneClip.ReplaceAllString(matches[len(matches)-1], "")
}

func (c dateComponents) numericOffset() string {
	sign := "+"
	if c.offset > 0 {
		sign = "-"
	}
	abs := c.offset
	if abs < 0 {
		abs = -abs
	}
	return sign + Pad(abs/60*100+abs%60, 4)
}
