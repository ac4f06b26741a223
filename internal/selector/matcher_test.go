package selector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		matched []int
		want    float64
	}{
		{"contiguous", "git status", []int{0, 1, 2}, 1},
		{"single", "ls", []int{1}, 1},
		{"gap of one", "abc", []int{0, 2}, 2.0 / 3.0},
		{"spread", "git status", []int{0, 4}, 2.0 / 5.0},
		{"multibyte contiguous", "héllo", []int{0, 1, 3}, 1},
		{"none", "ls", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.s, tt.matched), 1e-9)
		})
	}
}

func TestFuzzyMatcher_EmptyQuery(t *testing.T) {
	fm := NewFuzzyMatcher()
	assert.Empty(t, fm.Score("", []string{"ls", "pwd"}, 0))
}

func TestFuzzyMatcher_Threshold(t *testing.T) {
	fm := NewFuzzyMatcher()
	candidates := []string{"git status", "go test ./...", "grep -r sts"}

	// "sts" is contiguous in the last entry and scattered in the first
	assert.Equal(t, []string{"grep -r sts"}, fm.Score("sts", candidates, 1))

	all := fm.Score("sts", candidates, 0)
	assert.Equal(t, "grep -r sts", all[0])
	assert.Contains(t, all, "git status")
}

func TestFuzzyMatcher_OrderBySimilarityThenScore(t *testing.T) {
	fm := NewFuzzyMatcher()
	candidates := []string{"docker compose up", "make up", "kubectl apply"}

	got := fm.Matches("up", candidates, 0.6)
	var texts []string
	for _, m := range got {
		texts = append(texts, m.Text)
		assert.GreaterOrEqual(t, m.Similarity, 0.6)
		assert.LessOrEqual(t, m.Similarity, 1.0)
	}

	// Both "up" suffixes are contiguous; the shorter string has the higher
	// fuzzy score because it has fewer unmatched characters.
	if diff := cmp.Diff([]string{"make up", "docker compose up"}, texts); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestFuzzyMatcher_CaseInsensitive(t *testing.T) {
	fm := NewFuzzyMatcher()
	assert.Equal(t, []string{"Makefile"}, fm.Score("make", []string{"Makefile", "ls"}, 0.6))
}

func TestFuzzyMatcher_NoMatch(t *testing.T) {
	fm := NewFuzzyMatcher()
	assert.Empty(t, fm.Score("zzz", []string{"ls", "pwd"}, 0))
}
