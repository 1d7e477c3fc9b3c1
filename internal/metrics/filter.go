package metrics

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range from a selection of exactly two days with
// start ≤ end. Anything else wraps ErrInvalidRange.
func NewDateRange(sel ...time.Time) (DateRange, error) {
	if len(sel) != 2 {
		return DateRange{}, fmt.Errorf("%w: need a start and end date, got %d", ErrInvalidRange, len(sel))
	}
	start, end := day(sel[0]), day(sel[1])
	if sel[0].IsZero() || sel[1].IsZero() {
		return DateRange{}, fmt.Errorf("%w: empty date", ErrInvalidRange)
	}
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			start.Format(DayLayout), end.Format(DayLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether d falls on a day within the range.
func (r DateRange) Contains(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	d = day(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// DayLayout is the format for dates exchanged with callers.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD selection value.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidRange, s)
	}
	return t, nil
}

// FilterByDate keeps posts dated within r. Posts without a date are dropped.
func FilterByDate(posts []Post, r DateRange) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if r.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByKeyword keeps posts whose text contains keyword, ignoring case.
// Surrounding spaces are part of the keyword. A blank keyword keeps everything;
// posts without text never match.
func FilterByKeyword(posts []Post, keyword string) []Post {
	out := make([]Post, 0, len(posts))
	if strings.TrimSpace(keyword) == "" {
		return append(out, posts...)
	}
	fold := cases.Fold()
	needle := fold.String(keyword)
	for _, p := range posts {
		if p.HasText && strings.Contains(fold.String(p.Text), needle) {
			out = append(out, p)
		}
	}
	return out
}
