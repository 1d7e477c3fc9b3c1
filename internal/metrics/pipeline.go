package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/postlens/internal/logging"
	"github.com/KaramelBytes/postlens/internal/sheet"
)

// WarnInvalidRange is shown when a date selection cannot be applied.
const WarnInvalidRange = "Please select a valid start and end date."

// Query is the caller's filter state. A nil or empty Dates slice means no
// date filter; any other selection must be a start and end day.
type Query struct {
	Dates   []time.Time `json:"dates,omitempty"`
	Keyword string      `json:"keyword,omitempty"`
}

// ParseQuery builds a Query from user-entered values. Blank start and end mean
// no date filter. A value that is not a YYYY-MM-DD day is kept as a zero date
// so Run reports the selection as invalid instead of silently dropping it.
func ParseQuery(start, end, keyword string) Query {
	q := Query{Keyword: keyword}
	for _, s := range []string{start, end} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		d, _ := ParseDay(s)
		q.Dates = append(q.Dates, d)
	}
	return q
}

// LoadFile reads a spreadsheet and normalizes it into a Dataset.
func LoadFile(path string, opt sheet.LoadOptions) (*Dataset, error) {
	t, err := sheet.Load(path, opt)
	if err != nil {
		return nil, err
	}
	ds, err := Normalize(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	return ds, nil
}

// Result is one pipeline run's snapshot.
type Result struct {
	RunID   string      `json:"run_id"`
	Dataset DatasetInfo `json:"dataset"`
	// Range is the date filter that was applied, nil when none.
	Range   *DateRange `json:"range,omitempty"`
	Keyword string     `json:"keyword,omitempty"`
	Posts   []Post     `json:"posts"`
	// Summary is nil when Empty is true.
	Summary  *Summary     `json:"summary,omitempty"`
	Daily    []DailyPoint `json:"daily"`
	Empty    bool         `json:"empty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Runner executes the pipeline and logs each run.
type Runner struct {
	log logging.Logger
}

// NewRunner returns a Runner logging to log; nil discards.
func NewRunner(log logging.Logger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{log: log}
}

// Run filters, derives and aggregates ds for q. An invalid date selection is
// reported as a warning and the date filter is skipped. A run that retains no
// posts is marked Empty and has no Summary.
func (r *Runner) Run(ds *Dataset, q Query) (*Result, error) {
	if ds == nil {
		return nil, errors.New("run pipeline: no dataset loaded")
	}
	start := time.Now()
	res := &Result{
		RunID:   uuid.NewString(),
		Dataset: ds.Info(),
	}
	entry := r.log.WithFields(logging.Fields{"run_id": res.RunID, "dataset": ds.Name})

	posts := ds.Posts
	if len(q.Dates) > 0 {
		rng, err := NewDateRange(q.Dates...)
		switch {
		case errors.Is(err, ErrInvalidRange):
			entry.WithError(err).Warn("date filter skipped")
			res.Warnings = append(res.Warnings, WarnInvalidRange)
		case err != nil:
			return nil, fmt.Errorf("date filter: %w", err)
		default:
			posts = FilterByDate(posts, rng)
			res.Range = &rng
		}
	}
	if strings.TrimSpace(q.Keyword) != "" {
		res.Keyword = q.Keyword
	}
	posts = FilterByKeyword(posts, q.Keyword)
	res.Posts = Derive(posts)
	res.Daily = DailySeries(res.Posts)

	if len(res.Posts) == 0 {
		res.Empty = true
	} else {
		sum, err := Aggregate(res.Posts)
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		res.Summary = sum
	}
	entry.WithFields(logging.Fields{
		"input":    len(ds.Posts),
		"retained": len(res.Posts),
		"empty":    res.Empty,
		"duration": time.Since(start),
	}).Debug("pipeline run")
	return res, nil
}
