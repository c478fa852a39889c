// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"strconv"
	"strings"
	"time"
)

// DateParse selects how the reader treats strings that look like dates.
type DateParse byte

const (
	DateTime DateParse = iota // report date-like strings as Date tokens (default)
	DateNone                  // report all strings as String tokens
)

// isoLayouts are the ISO 8601 forms recognized in string values.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
}

// ParseDate parses s as a date in either ISO 8601 form
// ("2012-03-21T05:40:00Z") or the Microsoft JSON form ("/Date(1332308400000)/"
// or "/Date(1332308400000+0100)/"). It reports false if s is neither.
// ISO dates without an offset are interpreted as UTC.
func ParseDate(s string) (time.Time, bool) {
	if strings.HasPrefix(s, "/Date(") && strings.HasSuffix(s, ")/") {
		return parseMSDate(s[len("/Date(") : len(s)-len(")/")])
	}
	if len(s) < len("2006-01-02T15:04:05") || s[4] != '-' || s[7] != '-' || s[10] != 'T' {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseMSDate parses the body of a /Date(ms[+-hhmm])/ string.
func parseMSDate(body string) (time.Time, bool) {
	ms, zone := body, ""
	if i := strings.LastIndexAny(body, "+-"); i > 0 {
		ms, zone = body[:i], body[i:]
	}
	v, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	t := time.UnixMilli(v).UTC()
	if zone == "" {
		return t, true
	}
	if len(zone) != 5 {
		return time.Time{}, false
	}
	hh, err1 := strconv.Atoi(zone[1:3])
	mm, err2 := strconv.Atoi(zone[3:5])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	off := hh*3600 + mm*60
	if zone[0] == '-' {
		off = -off
	}
	return t.In(time.FixedZone("", off)), true
}

// MSDateFormat is a layout value for [Writer.SetDateFormat] that selects the
// Microsoft JSON date form.
const MSDateFormat = "/Date()/"

// FormatMSDate renders t in the Microsoft JSON form, including the zone
// offset unless t is in UTC.
func FormatMSDate(t time.Time) string {
	var sb strings.Builder
	sb.WriteString("/Date(")
	sb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	if t.Location() != time.UTC {
		_, off := t.Zone()
		sign := byte('+')
		if off < 0 {
			sign, off = '-', -off
		}
		sb.WriteByte(sign)
		sb.WriteString(twoDigits(off / 3600))
		sb.WriteString(twoDigits(off % 3600 / 60))
	}
	sb.WriteString(")/")
	return sb.String()
}

func twoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
