package store

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AIStudyPlans/scheduled-backend/types"
)

var nonWord = regexp.MustCompile(`\W+`)

// stopWords are common tokens excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "would": {},
	"could": {}, "should": {}, "about": {}, "there": {}, "their": {},
	"they": {}, "them": {}, "then": {}, "than": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "will": {}, "your": {}, "just": {}, "like": {},
	"really": {}, "very": {}, "been": {}, "being": {}, "because": {},
}

// ExtractKeywords tokenizes the given feedback texts and returns the ten most
// frequent keywords. Tokens are lower-cased, split on non-word runs; tokens of
// length <= 3 and stop words are discarded. Ties are broken alphabetically so
// the result is deterministic.
func ExtractKeywords(texts []string) []types.KeywordCount {
	counts := map[string]int{}
	for _, text := range texts {
		for _, token := range nonWord.Split(strings.ToLower(text), -1) {
			if len(token) <= 3 {
				continue
			}
			if _, skip := stopWords[token]; skip {
				continue
			}
			counts[token]++
		}
	}

	keywords := make([]types.KeywordCount, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, types.KeywordCount{Keyword: word, Count: count})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}
