package metrics

import (
	"math"
	"sort"
)

// TopHashtagLimit caps Summary.TopHashtags.
const TopHashtagLimit = 10

// Summary holds the aggregate metrics of one pipeline run.
type Summary struct {
	Posts            int     `json:"posts"`
	TotalLikes       float64 `json:"total_likes"`
	TotalComments    float64 `json:"total_comments"`
	TotalShares      float64 `json:"total_shares"`
	TotalClicks      float64 `json:"total_clicks"`
	TotalImpressions float64 `json:"total_impressions"`
	// EngagementRate and CTR are percentages of total impressions.
	EngagementRate float64 `json:"engagement_rate"`
	CTR            float64 `json:"ctr"`
	AvgEngagement  Number  `json:"avg_engagement"`

	TopLiked      *Post `json:"top_liked,omitempty"`
	TopEngagement *Post `json:"top_engagement,omitempty"`

	PostTypes   []TypeCount `json:"post_types"`
	TopHashtags []TagCount  `json:"top_hashtags"`
}

type TypeCount struct {
	Type  PostType `json:"type"`
	Count int      `json:"count"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Aggregate computes the Summary of derived posts. It returns ErrEmptyDataset
// when posts is empty; callers are expected to check first and show an empty
// state instead.
func Aggregate(posts []Post) (*Summary, error) {
	if len(posts) == 0 {
		return nil, ErrEmptyDataset
	}
	s := &Summary{Posts: len(posts)}
	var engSum float64
	var engN int
	for _, p := range posts {
		s.TotalLikes += value(p.Likes)
		s.TotalComments += value(p.Comments)
		s.TotalShares += value(p.Shares)
		s.TotalClicks += value(p.Clicks)
		s.TotalImpressions += value(p.Impressions)
		if p.TotalEngagement.Valid {
			engSum += p.TotalEngagement.Value
			engN++
		}
	}
	if s.TotalImpressions > 0 {
		s.EngagementRate = Round2((s.TotalLikes + s.TotalComments + s.TotalShares) / s.TotalImpressions * 100)
		s.CTR = Round2(s.TotalClicks / s.TotalImpressions * 100)
	}
	if engN > 0 {
		s.AvgEngagement = Num(Round2(engSum / float64(engN)))
	}
	s.TopLiked = argmax(posts, func(p Post) Number { return p.Likes })
	s.TopEngagement = argmax(posts, func(p Post) Number { return p.TotalEngagement })
	s.PostTypes = countPostTypes(posts)
	s.TopHashtags = countHashtags(posts, TopHashtagLimit)
	return s, nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func value(n Number) float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// argmax returns a copy of the first post holding the largest defined key,
// or nil if no post has one.
func argmax(posts []Post, key func(Post) Number) *Post {
	best := -1
	var bestVal float64
	for i, p := range posts {
		k := key(p)
		if !k.Valid {
			continue
		}
		if best < 0 || k.Value > bestVal {
			best, bestVal = i, k.Value
		}
	}
	if best < 0 {
		return nil
	}
	top := posts[best]
	return &top
}

func countPostTypes(posts []Post) []TypeCount {
	var out []TypeCount
	pos := map[PostType]int{}
	for _, p := range posts {
		t := p.Type
		if t == "" {
			t = ClassifyPostType(p.Text)
		}
		i, ok := pos[t]
		if !ok {
			i = len(out)
			pos[t] = i
			out = append(out, TypeCount{Type: t})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// countHashtags tallies every occurrence and keeps the limit most frequent,
// ties in first-seen order.
func countHashtags(posts []Post, limit int) []TagCount {
	out := []TagCount{}
	pos := map[string]int{}
	for _, p := range posts {
		for _, tag := range p.Hashtags {
			i, ok := pos[tag]
			if !ok {
				i = len(out)
				pos[tag] = i
				out = append(out, TagCount{Tag: tag})
			}
			out[i].Count++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
