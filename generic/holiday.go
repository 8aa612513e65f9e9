package generic

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// HOLIDAY CALENDAR - Non-working days excluded from business-day counts
// =============================================================================

// Holiday is a single non-working calendar date.
type Holiday struct {
	Date TimePoint
	Name string
}

// HolidayCalendar answers whether a calendar date is a holiday.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// NoHolidays is a calendar with no holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool { return false }

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(tp TimePoint) dateKey {
	return dateKey{year: tp.Year(), month: tp.Month(), day: tp.Day()}
}

// StaticHolidayCalendar matches holidays on (year, month, day) only.
// Safe for concurrent reads once built.
type StaticHolidayCalendar struct {
	days map[dateKey]Holiday
}

// NewStaticHolidayCalendar indexes the given holidays. Later duplicates win.
func NewStaticHolidayCalendar(holidays []Holiday) *StaticHolidayCalendar {
	c := &StaticHolidayCalendar{days: make(map[dateKey]Holiday, len(holidays))}
	for _, h := range holidays {
		c.days[keyOf(h.Date)] = h
	}
	return c
}

func (c *StaticHolidayCalendar) IsHoliday(date TimePoint) bool {
	if c == nil {
		return false
	}
	_, ok := c.days[keyOf(date)]
	return ok
}

// Holidays returns all holidays in chronological order.
func (c *StaticHolidayCalendar) Holidays() []Holiday {
	out := make([]Holiday, 0, len(c.days))
	for _, h := range c.days {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Len returns the number of distinct holiday dates.
func (c *StaticHolidayCalendar) Len() int { return len(c.days) }

// =============================================================================
// PARSING - DD/MM/YY lists and YAML files
// =============================================================================

// ParseHolidayDate parses DD/MM/YY or DD/MM/YYYY. Two-digit years are 20YY.
func ParseHolidayDate(s string) (TimePoint, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return TimePoint{}, &InvalidInputError{Field: "holiday", Reason: fmt.Sprintf("%q is not DD/MM/YY", s)}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimePoint{}, &InvalidInputError{Field: "holiday", Reason: fmt.Sprintf("%q is not DD/MM/YY", s)}
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	if len(parts[2]) <= 2 {
		year += 2000
	}

	tp := NewTimePoint(year, time.Month(month), day)
	// time.Date normalizes out-of-range values; reject instead of silently shifting.
	if tp.Day() != day || int(tp.Month()) != month || tp.Year() != year {
		return TimePoint{}, &InvalidInputError{Field: "holiday", Reason: fmt.Sprintf("%q is not a calendar date", s)}
	}
	return tp, nil
}

// ParseHolidayList parses a list of DD/MM/YY strings into holidays.
func ParseHolidayList(dates []string) ([]Holiday, error) {
	holidays := make([]Holiday, 0, len(dates))
	for _, d := range dates {
		tp, err := ParseHolidayDate(d)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, Holiday{Date: tp})
	}
	return holidays, nil
}

type holidayFile struct {
	Holidays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
}

// LoadHolidayFile reads a YAML document of the form
//
//	holidays:
//	  - date: "16/09/25"
//	    name: Independence Day
func LoadHolidayFile(path string) ([]Holiday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}
	return ParseHolidayYAML(data)
}

// ParseHolidayYAML decodes the holiday file format from memory.
func ParseHolidayYAML(data []byte) ([]Holiday, error) {
	var doc holidayFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode holiday file: %w", err)
	}

	holidays := make([]Holiday, 0, len(doc.Holidays))
	for _, entry := range doc.Holidays {
		tp, err := ParseHolidayDate(entry.Date)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, Holiday{Date: tp, Name: entry.Name})
	}
	return holidays, nil
}
