// Package report renders pipeline results as compact Markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/postlens/internal/metrics"
)

// Options controls what Markdown includes.
type Options struct {
	// TableRows limits the performance table; 0 omits it, negative shows all rows.
	TableRows int
	// Daily includes the per-day series.
	Daily bool
	// SourceName overrides the file name shown in the header.
	SourceName string
}

// DefaultOptions returns reasonable defaults for terminal output.
func DefaultOptions() Options {
	return Options{TableRows: 10, Daily: true}
}

// Markdown renders res. An empty result renders the empty state in place of
// the metric sections.
func Markdown(res *metrics.Result, opt Options) string {
	var b strings.Builder
	info := res.Dataset
	name := info.Name
	if opt.SourceName != "" {
		name = opt.SourceName
	}

	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Person: %s\n", info.Person))
	b.WriteString(fmt.Sprintf("Platform: %s\n", info.Platform))
	b.WriteString(fmt.Sprintf("Rows: %d (selected %d)\n", info.Rows, len(res.Posts)))
	if info.FirstDate != nil {
		b.WriteString(fmt.Sprintf("Dates: %s to %s\n", info.FirstDate.Format(metrics.DayLayout), info.LastDate.Format(metrics.DayLayout)))
	}
	if res.Range != nil {
		b.WriteString(fmt.Sprintf("Filter: %s to %s\n", res.Range.Start.Format(metrics.DayLayout), res.Range.End.Format(metrics.DayLayout)))
	}
	if res.Keyword != "" {
		b.WriteString(fmt.Sprintf("Keyword: %q\n", res.Keyword))
	}

	if res.Empty || res.Summary == nil {
		b.WriteString("\nNo posts match the current filters.\n")
		writeNotes(&b, res.Warnings)
		return b.String()
	}
	s := res.Summary

	b.WriteString("\n[METRICS]\n")
	b.WriteString(fmt.Sprintf("- Likes: %d\n", int64(s.TotalLikes)))
	b.WriteString(fmt.Sprintf("- Comments: %d\n", int64(s.TotalComments)))
	b.WriteString(fmt.Sprintf("- Shares: %d\n", int64(s.TotalShares)))
	b.WriteString(fmt.Sprintf("- Impressions: %d\n", int64(s.TotalImpressions)))
	b.WriteString(fmt.Sprintf("- Clicks: %d\n", int64(s.TotalClicks)))
	b.WriteString(fmt.Sprintf("- Engagement Rate: %.2f %%\n", s.EngagementRate))
	b.WriteString(fmt.Sprintf("- CTR: %.2f %%\n", s.CTR))
	b.WriteString(fmt.Sprintf("- Avg. Engagement/Post: %s\n", s.AvgEngagement))

	b.WriteString("\n[TOP POSTS]\n")
	if p := s.TopLiked; p != nil {
		b.WriteString(fmt.Sprintf("- Top post: %s\n", safeVal(p.Text)))
		b.WriteString(fmt.Sprintf("  likes %s | comments %s | shares %s\n", p.Likes, p.Comments, p.Shares))
	}
	if p := s.TopEngagement; p != nil {
		b.WriteString(fmt.Sprintf("- Most engaging: %s\n", safeVal(p.Text)))
		b.WriteString(fmt.Sprintf("  total engagement %s\n", p.TotalEngagement))
	}

	b.WriteString("\n[POST TYPES]\n")
	for _, tc := range s.PostTypes {
		b.WriteString(fmt.Sprintf("- %s: %d\n", tc.Type, tc.Count))
	}

	b.WriteString("\n[TOP HASHTAGS]\n")
	if len(s.TopHashtags) == 0 {
		b.WriteString("(none)\n")
	}
	for _, tc := range s.TopHashtags {
		b.WriteString(fmt.Sprintf("- %s: %d\n", tc.Tag, tc.Count))
	}

	if opt.Daily && len(res.Daily) > 0 {
		b.WriteString("\n[DAILY]\n")
		b.WriteString("| Date | Posts | Likes | Comments | Shares | Impressions | Clicks |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
		for _, pt := range res.Daily {
			b.WriteString(fmt.Sprintf("| %s | %d | %g | %g | %g | %g | %g |\n",
				pt.Date.Format(metrics.DayLayout), pt.Posts, pt.Likes, pt.Comments, pt.Shares, pt.Impressions, pt.Clicks))
		}
	}

	if opt.TableRows != 0 {
		rows := metrics.PerformanceTable(res.Posts)
		if opt.TableRows > 0 && len(rows) > opt.TableRows {
			rows = rows[:opt.TableRows]
		}
		b.WriteString("\n[PERFORMANCE TABLE]\n")
		b.WriteString("| Date | Post | Likes | Comments | Shares | Impressions | Clicks | Total Engagement | Post Type |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, p := range rows {
			date := ""
			if p.HasDate() {
				date = p.Date.Format(metrics.DayLayout)
			}
			text := p.Text
			if len([]rune(text)) > 80 {
				text = string([]rune(text)[:77]) + "..."
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				date, safeVal(text), p.Likes, p.Comments, p.Shares, p.Impressions, p.Clicks, p.TotalEngagement, p.Type))
		}
	}
	writeNotes(&b, res.Warnings)
	return b.String()
}

func writeNotes(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range warnings {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
