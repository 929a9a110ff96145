package filter

import (
	"strings"
)

// DefaultKeywords are clear adult indicators. The list is kept short on
// purpose: false negatives are accepted, false positives block real titles.
var DefaultKeywords = []string{
	"porn", "xxx", "nsfw", "adult", "explicit", "erotic", "hentai",
	"x-rated", "nc-17", "18+", "r18", "smut", "hardcore", "softcore",
}

type KeywordFilter struct {
	keywords []string
}

var defaultFilter = NewKeywordFilter()

// NewKeywordFilter returns a filter over DefaultKeywords plus extra. Extra
// keywords are lower-cased; blank ones are dropped.
func NewKeywordFilter(extra ...string) *KeywordFilter {
	keywords := make([]string, 0, len(DefaultKeywords)+len(extra))
	keywords = append(keywords, DefaultKeywords...)
	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return &KeywordFilter{keywords: keywords}
}

func (f *KeywordFilter) IsLikelyAdult(text string) bool {
	_, ok := f.Match(text)
	return ok
}

// Match returns the first keyword found in text. Meant for debug logs only,
// the keyword must not reach end users.
func (f *KeywordFilter) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	for _, kw := range f.keywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}

// IsLikelyAdult checks text against DefaultKeywords.
func IsLikelyAdult(text string) bool {
	return defaultFilter.IsLikelyAdult(text)
}
