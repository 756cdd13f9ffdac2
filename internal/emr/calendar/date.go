// Package calendar implements the date and interval primitives the
// survival-data pipeline is built on: calendar dates, half-open-or-closed
// intervals over dates, and the set operations eras and study periods need.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
)

// Date is a calendar date. Unlike time.Time it carries no timezone or
// sub-day precision, matching the record format's YYYY-MM-DD fields.
type Date struct {
	Year, Month, Day int
}

// datePattern avoids time.Parse's locale-sensitive strptime-alike cost for
// what is, on large event streams, the hottest parsing path in the pipeline.
var datePattern = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})\s*$`)

// ParseDate parses the exact YYYY-MM-DD pattern required by the record
// format. An empty string is not a valid date; callers treat absence
// separately.
func ParseDate(text string) (Date, error) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", text)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	d := Date{Year: year, Month: month, Day: day}
	if !d.valid() {
		return Date{}, fmt.Errorf("invalid date %q: out of range", text)
	}
	return d, nil
}

// daysInMonth returns the number of days in (year, month), 1-indexed month.
func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func (d Date) valid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	if d.Day < 1 || d.Day > daysInMonth(d.Year, d.Month) {
		return false
	}
	return true
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// toOrdinal converts a date to a day count since an arbitrary epoch, using
// the days_from_civil algorithm (proleptic Gregorian), so that subtraction
// needs no dependence on time.Time / the local timezone database.
func (d Date) toOrdinal() int64 {
	y := int64(d.Year)
	m := int64(d.Month)
	if m <= 2 {
		y--
	}
	era := y
	if y < 0 {
		era = y - 399
	}
	era /= 400
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + int64(d.Day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// Sub returns the number of days between d and other (d - other), positive
// when d is later.
func (d Date) Sub(other Date) int {
	return int(d.toOrdinal() - other.toOrdinal())
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromOrdinal(d.toOrdinal() + int64(n))
}

func fromOrdinal(z int64) Date {
	z += 719468
	era := z
	if z < 0 {
		era = z - 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return Date{Year: int(y), Month: int(m), Day: int(d)}
}

// Before reports whether d comes strictly before other.
func (d Date) Before(other Date) bool { return d.Sub(other) < 0 }

// After reports whether d comes strictly after other.
func (d Date) After(other Date) bool { return d.Sub(other) > 0 }

// Equal reports whether d and other denote the same calendar date.
func (d Date) Equal(other Date) bool { return d == other }

// Max returns the later of two dates.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// Min returns the earlier of two dates.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MinDate and MaxDate bound any date representable by this type's
// realistic usage; used as unbounded sentinels for clipping.
var (
	MinDate = Date{Year: -999999999, Month: 1, Day: 1}
	MaxDate = Date{Year: 999999999, Month: 1, Day: 1}
)
