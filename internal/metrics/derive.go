package metrics

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// EducationalKeywords mark a post as Educational when any appears in its text.
var EducationalKeywords = []string{"learn", "educational", "knowledge", "tips", "tutorial", "training", "course"}

// ShortLabelLen is the number of characters kept by ShortLabel.
const ShortLabelLen = 25

// hashtagPattern is '#' followed by word characters, Unicode letters included.
var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{M}\p{N}_]+`)

// Derive returns copies of posts with TotalEngagement, ShortLabel, Type and
// Hashtags filled in. The input slice is not modified.
func Derive(posts []Post) []Post {
	out := make([]Post, len(posts))
	fold := cases.Fold()
	for i, p := range posts {
		p.TotalEngagement = TotalEngagement(p)
		p.ShortLabel = ShortLabel(p.Text)
		p.Type = classify(fold, p.Text)
		p.Hashtags = ExtractHashtags(p.Text)
		out[i] = p
	}
	return out
}

// TotalEngagement is likes + comments + shares; null if any of them is null.
func TotalEngagement(p Post) Number {
	return p.Likes.Add(p.Comments).Add(p.Shares)
}

// ShortLabel truncates text to ShortLabelLen characters and appends "...".
func ShortLabel(text string) string {
	r := []rune(text)
	if len(r) > ShortLabelLen {
		r = r[:ShortLabelLen]
	}
	return string(r) + "..."
}

// ClassifyPostType returns Educational if text contains any educational
// keyword, case-insensitively, and Other otherwise.
func ClassifyPostType(text string) PostType {
	return classify(cases.Fold(), text)
}

func classify(fold cases.Caser, text string) PostType {
	folded := fold.String(text)
	for _, kw := range EducationalKeywords {
		if strings.Contains(folded, kw) {
			return Educational
		}
	}
	return Other
}

// ExtractHashtags returns every hashtag in text, in order of appearance and
// with repeats. The result is never nil.
func ExtractHashtags(text string) []string {
	tags := hashtagPattern.FindAllString(text, -1)
	if tags == nil {
		return []string{}
	}
	return tags
}
