package metrics

import (
	"sort"
	"time"
)

// DailyPoint sums post metrics for one calendar day.
type DailyPoint struct {
	Date        time.Time `json:"date"`
	Posts       int       `json:"posts"`
	Likes       float64   `json:"likes"`
	Comments    float64   `json:"comments"`
	Shares      float64   `json:"shares"`
	Impressions float64   `json:"impressions"`
	Clicks      float64   `json:"clicks"`
}

// DailySeries groups posts by date in ascending order. Undated posts are skipped
// and null metrics count as zero.
func DailySeries(posts []Post) []DailyPoint {
	byDay := map[time.Time]*DailyPoint{}
	for _, p := range posts {
		if !p.HasDate() {
			continue
		}
		pt := byDay[p.Date]
		if pt == nil {
			pt = &DailyPoint{Date: p.Date}
			byDay[p.Date] = pt
		}
		pt.Posts++
		pt.Likes += value(p.Likes)
		pt.Comments += value(p.Comments)
		pt.Shares += value(p.Shares)
		pt.Impressions += value(p.Impressions)
		pt.Clicks += value(p.Clicks)
	}
	out := make([]DailyPoint, 0, len(byDay))
	for _, pt := range byDay {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// PerformanceTable returns posts ordered by total engagement, highest first.
// Equal values keep table order and posts with null engagement go last.
func PerformanceTable(posts []Post) []Post {
	out := append([]Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].TotalEngagement, out[j].TotalEngagement
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value > b.Value
	})
	return out
}
