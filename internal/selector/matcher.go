package selector

import (
	"sort"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Matcher scores candidates against a query. Score returns only the
// candidates whose similarity is at least threshold, best first.
type Matcher interface {
	Score(query string, candidates []string, threshold float64) []string
}

// Match is one scored candidate
type Match struct {
	Text       string
	Index      int
	Similarity float64
	Score      int
}

// FuzzyMatcher matches with sahilm/fuzzy. A candidate's similarity is the
// share of its matched span made up of matched characters, so a contiguous
// match scores 1 and a scattered one approaches 0.
type FuzzyMatcher struct{}

// NewFuzzyMatcher creates a fuzzy matcher
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{}
}

// Score implements Matcher
func (fm *FuzzyMatcher) Score(query string, candidates []string, threshold float64) []string {
	matches := fm.Matches(query, candidates, threshold)

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Text
	}
	return out
}

// Matches returns the scored candidates at or above threshold, ordered by
// similarity, then fuzzy score, then input order.
func (fm *FuzzyMatcher) Matches(query string, candidates []string, threshold float64) []Match {
	if query == "" {
		return nil
	}

	found := fuzzy.FindNoSort(query, candidates)
	matches := make([]Match, 0, len(found))
	for _, f := range found {
		sim := similarity(f.Str, f.MatchedIndexes)
		if sim < threshold {
			continue
		}
		matches = append(matches, Match{
			Text:       f.Str,
			Index:      f.Index,
			Similarity: sim,
			Score:      f.Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Index < b.Index
	})

	return matches
}

// similarity divides the bytes of the matched runes by the bytes spanned
// from the first match to the end of the last.
func similarity(s string, matched []int) float64 {
	if len(matched) == 0 {
		return 0
	}

	var matchedBytes int
	for _, idx := range matched {
		_, size := utf8.DecodeRuneInString(s[idx:])
		matchedBytes += size
	}

	first := matched[0]
	last := matched[len(matched)-1]
	_, lastSize := utf8.DecodeRuneInString(s[last:])
	span := last + lastSize - first

	sim := float64(matchedBytes) / float64(span)
	if sim > 1 {
		return 1
	}
	return sim
}
