package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CivilDate is a calendar day with no time zone attached.
type CivilDate struct {
	Year  int
	Month int
	Day   int
}

// Valid reports whether the date was successfully parsed.
func (d CivilDate) Valid() bool {
	return d.Year > 0 && d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

// YearMonth returns the month the date belongs to.
func (d CivilDate) YearMonth() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

// String renders the date as YYYY-MM-DD.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// String renders the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: int(m), Day: d}
}

// ParseCivilDate parses an ISO date (YYYY-MM-DD) as sent by date pickers.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return CivilDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseYearMonth parses an ISO month (YYYY-MM) as sent by month pickers.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

// ParseOrderDate extracts the leading DD/MM/YYYY token of an order's
// data_hora field. Day and month must be zero padded. Missing or malformed
// input yields an invalid date.
func ParseOrderDate(dataHora string) CivilDate {
	if dataHora == "" {
		return CivilDate{}
	}
	token, _, _ := strings.Cut(dataHora, " ")
	parts := strings.Split(token, "/")
	if len(parts) != 3 {
		return CivilDate{}
	}

	day, ok := digits(parts[0], 2)
	if !ok {
		return CivilDate{}
	}
	month, ok := digits(parts[1], 2)
	if !ok {
		return CivilDate{}
	}
	year, ok := digits(parts[2], 4)
	if !ok {
		return CivilDate{}
	}

	d := CivilDate{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return CivilDate{}
	}
	return d
}

func digits(s string, width int) (int, bool) {
	if len(s) != width {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
