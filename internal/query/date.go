package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateKind tags the variants of DateSpec.
type DateKind int

const (
	KindToday DateKind = iota
	KindTomorrow
	KindYesterday
	KindNextWeek
	KindNextMonth
	KindRelative
	KindNextWeekday
	KindAbsolute
)

func (k DateKind) String() string {
	switch k {
	case KindToday:
		return "today"
	case KindTomorrow:
		return "tomorrow"
	case KindYesterday:
		return "yesterday"
	case KindNextWeek:
		return "next_week"
	case KindNextMonth:
		return "next_month"
	case KindRelative:
		return "relative"
	case KindNextWeekday:
		return "next_weekday"
	case KindAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Unit is the unit of a relative offset.
type Unit int

const (
	UnitDay Unit = iota
	UnitWeek
	UnitMonth
)

// DateSpec is a parsed date phrase. Which fields are meaningful depends on Kind.
type DateSpec struct {
	Kind DateKind

	// KindRelative
	Amount int
	Unit   Unit

	// KindNextWeekday
	Weekday time.Weekday

	// KindAbsolute
	Date    time.Time
	HasTime bool
}

// DateParseError is returned when no rule matches a phrase.
type DateParseError struct {
	Phrase string
	Err    error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("could not parse date %q", e.Phrase)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

var (
	relativePattern = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months)\b`)
	weekdayPattern  = regexp.MustCompile(`^next\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	weekdays = map[string]time.Weekday{
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
		"sunday":    time.Sunday,
	}
)

// ParseDatePhrase parses phrase. loc is used for absolute dates without an
// explicit zone; nil means time.Local.
func ParseDatePhrase(phrase string, loc *time.Location) (DateSpec, error) {
	if loc == nil {
		loc = time.Local
	}
	original := strings.TrimSpace(phrase)
	p := strings.Join(strings.Fields(strings.ToLower(original)), " ")
	if p == "" {
		return DateSpec{}, &DateParseError{Phrase: phrase, Err: fmt.Errorf("empty phrase")}
	}

	switch p {
	case "today":
		return DateSpec{Kind: KindToday}, nil
	case "tomorrow":
		return DateSpec{Kind: KindTomorrow}, nil
	case "yesterday":
		return DateSpec{Kind: KindYesterday}, nil
	case "next week":
		return DateSpec{Kind: KindNextWeek}, nil
	case "next month":
		return DateSpec{Kind: KindNextMonth}, nil
	}

	if m := relativePattern.FindStringSubmatch(p); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return DateSpec{}, &DateParseError{Phrase: phrase, Err: err}
		}
		spec := DateSpec{Kind: KindRelative, Amount: amount}
		switch {
		case strings.HasPrefix(m[2], "day"):
			spec.Unit = UnitDay
		case strings.HasPrefix(m[2], "week"):
			spec.Unit = UnitWeek
		default:
			spec.Unit = UnitMonth
		}
		return spec, nil
	}

	if m := weekdayPattern.FindStringSubmatch(p); m != nil {
		return DateSpec{Kind: KindNextWeekday, Weekday: weekdays[m[1]]}, nil
	}

	parsed, err := dateparse.ParseIn(original, loc)
	if err != nil {
		return DateSpec{}, &DateParseError{Phrase: phrase, Err: err}
	}
	hasTime := parsed.Hour() != 0 || parsed.Minute() != 0 || parsed.Second() != 0
	return DateSpec{Kind: KindAbsolute, Date: parsed, HasTime: hasTime}, nil
}

// Resolve returns the concrete due time for spec relative to now.
// All kinds except an absolute date with a time resolve to 23:59:59.
func (s DateSpec) Resolve(now time.Time) time.Time {
	switch s.Kind {
	case KindToday:
		return EndOfDay(now)
	case KindTomorrow:
		return EndOfDay(now.AddDate(0, 0, 1))
	case KindYesterday:
		return EndOfDay(now.AddDate(0, 0, -1))
	case KindNextWeek:
		return EndOfDay(now.AddDate(0, 0, 7))
	case KindNextMonth:
		return EndOfDay(addMonthClamped(now, 1))
	case KindRelative:
		switch s.Unit {
		case UnitWeek:
			return EndOfDay(now.AddDate(0, 0, 7*s.Amount))
		case UnitMonth:
			return EndOfDay(now.AddDate(0, 0, 30*s.Amount))
		default:
			return EndOfDay(now.AddDate(0, 0, s.Amount))
		}
	case KindNextWeekday:
		ahead := int(s.Weekday) - int(now.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		return EndOfDay(now.AddDate(0, 0, ahead))
	case KindAbsolute:
		if s.HasTime {
			return s.Date
		}
		return EndOfDay(s.Date)
	}
	return EndOfDay(now)
}

// ResolveDate parses phrase and resolves it against now, using now's location.
func ResolveDate(phrase string, now time.Time) (time.Time, error) {
	spec, err := ParseDatePhrase(phrase, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	return spec.Resolve(now), nil
}

// EndOfDay returns 23:59:59 on t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// addMonthClamped moves t forward by n calendar months, clamping the day to
// the last day of the target month.
func addMonthClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
