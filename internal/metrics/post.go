// Package metrics turns an uploaded table of social-media posts into per-post
// derived fields and an aggregate summary.
//
// The stages are pure functions over immutable inputs:
//
//	Normalize → Filter (FilterByDate, FilterByKeyword) → Derive → Aggregate
//
// Runner composes them for callers that re-run the whole pipeline whenever
// their filter state changes.
package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Number is a nullable numeric cell. The zero value is null.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a defined Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Add returns n+o, null when either side is null.
func (n Number) Add(o Number) Number {
	if !n.Valid || !o.Valid {
		return Number{}
	}
	return Num(n.Value + o.Value)
}

// String renders the value compactly, or "n/a" when null.
func (n Number) String() string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Num(v)
	return nil
}

// PostType is the keyword-based classification of a post.
type PostType string

const (
	Educational PostType = "Educational"
	Other       PostType = "Other"
)

// Post is one row of the uploaded table plus the fields Derive adds.
type Post struct {
	// Date is truncated to the calendar day in UTC; the zero time means
	// unparseable and is encoded as null.
	Date        time.Time `json:"date"`
	Text        string    `json:"post"`
	HasText     bool      `json:"-"`
	Likes       Number    `json:"likes"`
	Comments    Number    `json:"comments"`
	Shares      Number    `json:"shares"`
	Clicks      Number    `json:"clicks"`
	Impressions Number    `json:"impressions"`
	Platform    string    `json:"platform"`
	Person      string    `json:"person"`

	TotalEngagement Number   `json:"total_engagement"`
	ShortLabel      string   `json:"short_label"`
	Type            PostType `json:"post_type,omitempty"`
	Hashtags        []string `json:"hashtags"`

	// Raw holds the original cells in Dataset.Columns order.
	Raw []string `json:"-"`
}

// HasDate reports whether the date cell could be parsed.
func (p Post) HasDate() bool { return !p.Date.IsZero() }

// postJSON drops Post's methods so the codecs below can embed it.
type postJSON Post

// MarshalJSON encodes Date as a YYYY-MM-DD day, or null when it is missing.
func (p Post) MarshalJSON() ([]byte, error) {
	out := struct {
		Date *string `json:"date"`
		postJSON
	}{postJSON: postJSON(p)}
	if p.HasDate() {
		s := p.Date.Format(DayLayout)
		out.Date = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts what MarshalJSON writes.
func (p *Post) UnmarshalJSON(b []byte) error {
	in := struct {
		Date *string `json:"date"`
		*postJSON
	}{postJSON: (*postJSON)(p)}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.Date = time.Time{}
	if in.Date != nil {
		t, err := time.Parse(DayLayout, *in.Date)
		if err != nil {
			return fmt.Errorf("post date: %w", err)
		}
		p.Date = t
	}
	return nil
}

// Dataset is a normalized upload. It is never mutated after Normalize returns;
// every pipeline run filters and derives from a fresh copy of Posts.
type Dataset struct {
	Name     string
	Columns  []string
	Platform string
	Person   string
	Posts    []Post
}

// DatasetInfo describes a Dataset for display.
type DatasetInfo struct {
	Name      string     `json:"name"`
	Platform  string     `json:"platform"`
	Person    string     `json:"person"`
	Columns   []string   `json:"columns"`
	Rows      int        `json:"rows"`
	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`
}

// Info summarizes the dataset, including its date span for range selectors.
func (ds *Dataset) Info() DatasetInfo {
	info := DatasetInfo{
		Name:     ds.Name,
		Platform: ds.Platform,
		Person:   ds.Person,
		Columns:  ds.Columns,
		Rows:     len(ds.Posts),
	}
	var first, last time.Time
	for _, p := range ds.Posts {
		if !p.HasDate() {
			continue
		}
		if first.IsZero() || p.Date.Before(first) {
			first = p.Date
		}
		if last.IsZero() || p.Date.After(last) {
			last = p.Date
		}
	}
	if !first.IsZero() {
		info.FirstDate = &first
		info.LastDate = &last
	}
	return info
}
