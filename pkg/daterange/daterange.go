// Package daterange resolves symbolic date-range presets and derives
// comparison ranges for two-period Search Console reports.
//
// All arithmetic is calendar-based: ranges are whole days in YYYY-MM-DD
// form and no time-of-day component is meaningful. "Today" is always an
// explicit input so range resolution stays deterministic under test.
package daterange

import (
	"encoding/json"
	"time"
)

// Mode selects how a primary range is resolved.
type Mode string

const (
	// ModeLast7d covers the 7 days up to and including today.
	ModeLast7d Mode = "last7d"

	// ModeLast28d covers the 28 days up to and including today.
	ModeLast28d Mode = "last28d"

	// ModeLast3mo covers the 3 calendar months up to today.
	ModeLast3mo Mode = "last3mo"

	// ModeLast12mo covers the 12 calendar months up to today.
	ModeLast12mo Mode = "last12mo"

	// ModeCustom uses caller-supplied start/end dates.
	ModeCustom Mode = "custom"
)

// Policy selects how the comparison range is derived from the primary one.
type Policy string

const (
	// PolicyPreviousPeriod compares against the period of identical length
	// immediately preceding the primary range.
	PolicyPreviousPeriod Policy = "previous_period"

	// PolicyPreviousYear compares against the same calendar period one
	// year earlier.
	PolicyPreviousYear Policy = "previous_year"

	// PolicyCustom compares against an independently resolved range.
	PolicyCustom Policy = "custom"
)

// defaultCustomSpan is the fallback window when a custom range is missing
// its start date.
const defaultCustomSpan = 28

// Range is an inclusive calendar date range with Start <= End.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the start date in YYYY-MM-DD form.
func (r Range) StartDate() string {
	return r.Start.Format(time.DateOnly)
}

// EndDate returns the end date in YYYY-MM-DD form.
func (r Range) EndDate() string {
	return r.End.Format(time.DateOnly)
}

// Days returns the inclusive length of the range in days.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r Range) String() string {
	return r.StartDate() + ".." + r.EndDate()
}

// MarshalJSON emits the wire shape the Search Console API uses.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}{r.StartDate(), r.EndDate()})
}

// UnmarshalJSON parses the {startDate, endDate} wire shape.
func (r *Range) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(time.DateOnly, raw.StartDate)
	if err != nil {
		return err
	}
	end, err := time.Parse(time.DateOnly, raw.EndDate)
	if err != nil {
		return err
	}
	r.Start, r.End = start, end
	return nil
}

// Custom holds the raw inputs for an independently specified range.
// Empty or unparseable fields degrade to defaults rather than failing,
// because UI date pickers may be partially filled.
type Custom struct {
	Mode  Mode
	Start string
	End   string
}

// Resolve computes the range for a preset mode relative to today.
//
// Non-custom modes end at today and reach back 7/28 days or 3/12 calendar
// months; month subtraction rolls over year boundaries. Custom mode takes
// the supplied dates, falling back per side: end defaults to today, start
// defaults to end minus 28 days.
func Resolve(mode Mode, customStart, customEnd string, today time.Time) Range {
	today = normalize(today)

	switch mode {
	case ModeLast7d:
		return Range{Start: today.AddDate(0, 0, -7), End: today}
	case ModeLast28d:
		return Range{Start: today.AddDate(0, 0, -28), End: today}
	case ModeLast3mo:
		return Range{Start: today.AddDate(0, -3, 0), End: today}
	case ModeLast12mo:
		return Range{Start: today.AddDate(0, -12, 0), End: today}
	}

	// Custom (and any unknown mode, degraded): parse what we got.
	end := today
	if parsed, err := time.Parse(time.DateOnly, customEnd); err == nil {
		end = parsed
	}
	start := end.AddDate(0, 0, -defaultCustomSpan)
	if parsed, err := time.Parse(time.DateOnly, customStart); err == nil {
		start = parsed
	}
	return Range{Start: start, End: end}
}

// BuildComparison derives the comparison range for a primary range under
// the given policy. It never fails: both returned ranges are well-formed.
//
// For PolicyCustom the second range is resolved from customB, fully
// independent of the primary range.
func BuildComparison(policy Policy, rangeA Range, customB Custom, today time.Time) (Range, Range) {
	switch policy {
	case PolicyPreviousYear:
		return rangeA, Range{
			Start: addYearsClamped(rangeA.Start, -1),
			End:   addYearsClamped(rangeA.End, -1),
		}
	case PolicyCustom:
		return rangeA, Resolve(customB.Mode, customB.Start, customB.End, today)
	default:
		// Previous period: same length, ending the day before rangeA starts.
		end := rangeA.Start.AddDate(0, 0, -1)
		start := end.AddDate(0, 0, -(rangeA.Days() - 1))
		return rangeA, Range{Start: start, End: end}
	}
}

// addYearsClamped shifts a date by whole years, clamping to the last day
// of the month when the source day does not exist in the target year
// (Feb 29 minus one year yields Feb 28, not Mar 1).
func addYearsClamped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	shifted := time.Date(y+years, m, d, 0, 0, 0, 0, time.UTC)
	if shifted.Month() != m {
		// Day overflowed into the next month; day 0 is the last day of
		// the previous month.
		shifted = time.Date(y+years, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return shifted
}

// normalize strips any time-of-day component.
func normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
