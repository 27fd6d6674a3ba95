// Package dates lists upcoming birthdays, anniversaries and one-off dates
// from a personal dates file.
package dates

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"goodmorning/internal/fileutil"
)

// DefaultWindow is how many days ahead dates are shown.
const DefaultWindow = 90

// Entry is one line of the dates file. Date is "MM/DD" for dates that recur
// every year or "YYYY/MM/DD" for a single occurrence.
type Entry struct {
	Name            string `toml:"name" yaml:"name"`
	Date            string `toml:"date" yaml:"date"`
	Notes           string `toml:"notes" yaml:"notes"`
	AnniversaryYear int    `toml:"anniversary_year" yaml:"anniversary_year"`
}

type file struct {
	Dates []Entry `toml:"date" yaml:"date"`
}

// Load reads the [[date]] entries of a TOML or YAML file.
func Load(path string) ([]Entry, error) {
	var f file
	if err := fileutil.ReadDocument(path, &f); err != nil {
		return nil, fmt.Errorf("load dates: %w", err)
	}
	var errs []error
	for i, e := range f.Dates {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("date %d: name is required", i+1))
		}
		if _, _, err := parse(e.Date, 2000); err != nil {
			errs = append(errs, fmt.Errorf("date %q: %w", e.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Dates, nil
}

// Upcoming is a dated occurrence of an entry.
type Upcoming struct {
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	DaysAway int       `json:"days_away"`
	Notes    string    `json:"notes,omitempty"`
}

// Within returns the occurrences of entries that fall between today and
// window days ahead, soonest first. Recurring dates are considered in the
// current and the next year so that January dates show up in December.
// Days are counted from now rounding up, so later today is day 0.
func Within(entries []Entry, now time.Time, window int) ([]Upcoming, error) {
	if window < 0 {
		window = DefaultWindow
	}
	var out []Upcoming
	for _, e := range entries {
		years := []int{now.Year()}
		if isRecurring(e.Date) {
			years = append(years, now.Year()+1)
		}
		for _, year := range years {
			date, occurrence, err := parse(e.Date, year)
			if err != nil {
				return nil, fmt.Errorf("date %q: %w", e.Name, err)
			}
			date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
			days := daysBetween(now, date)
			if days < 0 || days > window {
				continue
			}
			out = append(out, Upcoming{
				Name:     e.Name,
				Date:     date,
				DaysAway: days,
				Notes:    notes(e, occurrence),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysAway < out[j].DaysAway })
	return out, nil
}

// FormatDate renders a date like "Mon, Jan 2".
func FormatDate(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

func daysBetween(now, date time.Time) int {
	days := int(math.Ceil(date.Sub(now).Hours() / 24))
	if days == 0 {
		// math.Ceil of a small negative fraction is -0
		return 0
	}
	return days
}

func notes(e Entry, year int) string {
	var parts []string
	if n := strings.TrimSpace(e.Notes); n != "" {
		parts = append(parts, n)
	}
	if e.AnniversaryYear > 0 {
		parts = append(parts, fmt.Sprintf("%d year anniversary", year-e.AnniversaryYear))
	}
	return strings.Join(parts, ", ")
}

func isRecurring(value string) bool {
	return strings.Count(value, "/") == 1
}

// parse converts a date string into a calendar date, using year for
// recurring dates. The second result is the year of the occurrence.
func parse(value string, year int) (time.Time, int, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("unknown date format: '%s'", value)
		}
		nums[i] = n
	}
	var month, day int
	switch len(nums) {
	case 2:
		month, day = nums[0], nums[1]
	case 3:
		year, month, day = nums[0], nums[1], nums[2]
	default:
		return time.Time{}, 0, fmt.Errorf("unknown date format: '%s'", value)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, 0, fmt.Errorf("unknown date format: '%s'", value)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), year, nil
}
