package status

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 form dates are written in.
const DateLayout = time.DateOnly

var (
	standPattern          = regexp.MustCompile(`Stand:\s*(\d{2})\.(\d{2})\.(\d{4})`)
	explicitTargetPattern = regexp.MustCompile(`bis\s*(\d{2})\.(\d{2})\.(\d{4})`)
	fuzzyTargetPattern    = regexp.MustCompile(`(?i)bis\s*(Anfang|Mitte|Ende)?\s*([A-Za-zÄÖÜäöüß]+)\s*(\d{4})`)
)

// germanMonths maps lowercased German month names to months.
var germanMonths = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"märz":      time.March,
	"maerz":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"dezember":  time.December,
}

// Form tells how the target date was written on the page
type Form string

const (
	FormExplicit Form = "explicit" // "bis 15.05.2024"
	FormFuzzy    Form = "fuzzy"    // "bis Ende April 2023"
)

// Position is the qualifier in front of a month name
type Position string

const (
	PositionNone  Position = ""
	PositionEarly Position = "anfang"
	PositionMid   Position = "mitte"
	PositionEnd   Position = "ende"
)

// Target is the date up to which applications are processed.
// MonthName and Position are only set for FormFuzzy.
type Target struct {
	Date      time.Time `json:"date"`
	Form      Form      `json:"form"`
	Position  Position  `json:"position,omitempty"`
	MonthName string    `json:"month_name,omitempty"`
}

// String renders the target as it was resolved, e.g. "2023-04-30 (Ende April 2023)".
func (t Target) String() string {
	date := t.Date.Format(DateLayout)
	if t.Form != FormFuzzy {
		return date
	}
	phrase := fmt.Sprintf("%s %d", t.MonthName, t.Date.Year())
	if t.Position != PositionNone {
		phrase = capitalize(string(t.Position)) + " " + phrase
	}
	return fmt.Sprintf("%s (%s)", date, phrase)
}

// ParseStandDate extracts the "Stand: DD.MM.YYYY" date from the sentence.
func ParseStandDate(sentence string) (time.Time, error) {
	matches := standPattern.FindStringSubmatch(sentence)
	if matches == nil {
		return time.Time{}, ErrStandDateNotFound
	}
	return dateFromParts(matches[1], matches[2], matches[3])
}

// ParseTargetDate resolves the "bis ..." clause of the sentence.
// An explicit date wins; the month form is only tried when there is none.
func ParseTargetDate(sentence string) (Target, error) {
	if matches := explicitTargetPattern.FindStringSubmatch(sentence); matches != nil {
		date, err := dateFromParts(matches[1], matches[2], matches[3])
		if err != nil {
			return Target{}, err
		}
		return Target{Date: date, Form: FormExplicit}, nil
	}

	matches := fuzzyTargetPattern.FindStringSubmatch(sentence)
	if matches == nil {
		return Target{}, ErrTargetDateNotFound
	}
	positionRaw, monthRaw, yearRaw := matches[1], matches[2], matches[3]

	month, ok := germanMonths[strings.ToLower(monthRaw)]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrInvalidMonth, monthRaw)
	}

	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: year %q", ErrInvalidDate, yearRaw)
	}

	position := Position(strings.ToLower(positionRaw))
	day, err := dayForPosition(position, year, month)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s", err, positionRaw)
	}

	date, err := newDate(year, month, day)
	if err != nil {
		return Target{}, err
	}

	return Target{
		Date:      date,
		Form:      FormFuzzy,
		Position:  position,
		MonthName: monthRaw,
	}, nil
}

// dayForPosition pins a month qualifier to a day of that month
func dayForPosition(position Position, year int, month time.Month) (int, error) {
	switch position {
	case PositionNone:
		return 1, nil
	case PositionEarly:
		return 5, nil
	case PositionMid:
		return 15, nil
	case PositionEnd:
		return lastDayOfMonth(year, month), nil
	default:
		return 0, ErrUnsupportedPosition
	}
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateFromParts(dayRaw, monthRaw, yearRaw string) (time.Time, error) {
	day, err := strconv.Atoi(dayRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrInvalidDate, dayRaw)
	}
	month, err := strconv.Atoi(monthRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q", ErrInvalidDate, monthRaw)
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrInvalidDate, yearRaw)
	}
	return newDate(year, time.Month(month), day)
}

// newDate builds a UTC midnight date and rejects values time.Date would normalize,
// such as 31.02. or month 13.
func newDate(year int, month time.Month, day int) (time.Time, error) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if year < 1 || d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %02d.%02d.%04d", ErrInvalidDate, day, int(month), year)
	}
	return d, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
