package rerank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseContext(language string, runtime, year int) *ScoringContext {
	return &ScoringContext{
		Genres:   NewTokenSet("action"),
		Keywords: TokenSet{},
		Style:    TokenSet{},
		Runtime:  intPtr(runtime),
		Year:     intPtr(year),
		Language: language,
	}
}

func TestJaccard(t *testing.T) {
	sets := []TokenSet{
		{},
		NewTokenSet("a"),
		NewTokenSet("a", "b"),
		NewTokenSet("b", "c", "d"),
		NewTokenSet("a", "b", "c", "d"),
	}

	t.Run("Symmetric and bounded", func(t *testing.T) {
		for _, a := range sets {
			for _, b := range sets {
				ab := Jaccard(a, b)
				assert.Equal(t, ab, Jaccard(b, a))
				assert.GreaterOrEqual(t, ab, 0.0)
				assert.LessOrEqual(t, ab, 1.0)
			}
		}
	})

	t.Run("Empty set yields zero", func(t *testing.T) {
		for _, s := range sets {
			assert.Equal(t, 0.0, Jaccard(TokenSet{}, s))
			assert.Equal(t, 0.0, Jaccard(nil, s))
		}
	})

	t.Run("Known values", func(t *testing.T) {
		assert.Equal(t, 1.0, Jaccard(NewTokenSet("a", "b"), NewTokenSet("b", "a")))
		assert.InDelta(t, 0.25, Jaccard(NewTokenSet("a", "b"), NewTokenSet("b", "c", "d")), 1e-12)
	})
}

func TestTonalPenalty(t *testing.T) {
	anchor := NewTokenSet("drama", "comedy")

	assert.Equal(t, 0.0, TonalPenalty(anchor, NewTokenSet("drama", "comedy")))
	assert.Equal(t, 0.5, TonalPenalty(anchor, NewTokenSet("horror")))
	assert.Equal(t, 1.0, TonalPenalty(anchor, NewTokenSet("horror", "romance")))
	assert.Equal(t, 1.0, TonalPenalty(anchor, NewTokenSet("horror", "romance", "family")))
	assert.Equal(t, 0.0, TonalPenalty(anchor, NewTokenSet("thriller", "western")))
}

func TestScore(t *testing.T) {
	t.Run("Exact blend", func(t *testing.T) {
		anchor := &ScoringContext{
			Genres:   NewTokenSet("drama", "crime"),
			Keywords: NewTokenSet("heist", "city"),
			Style:    NewTokenSet("heist"),
			Runtime:  intPtr(120),
			Year:     intPtr(2000),
			Language: "en",
		}
		candidate := &ScoringContext{
			Genres:   NewTokenSet("drama", "comedy"),
			Keywords: NewTokenSet("heist", "neo-noir"),
			Style:    NewTokenSet("heist", "neo-noir"),
			Runtime:  intPtr(60),
			Year:     intPtr(2025),
			Language: "en",
		}

		got := Score(anchor, candidate, 0.2, intPtr(100), 1000)

		want := 0.70*0.8 +
			0.15*(1.0/3.0) +
			0.10*0.5 +
			0.05*(math.Log1p(100)/math.Log1p(1000)) +
			0.03*1 -
			0.06*0.5 -
			0.05*0.5 -
			0.05*0.5
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("Negative similarity is clamped", func(t *testing.T) {
		anchor := baseContext("en", 100, 2000)
		far := Score(anchor, anchor, 1.6, nil, 0)
		orthogonal := Score(anchor, anchor, 1.0, nil, 0)
		assert.Equal(t, orthogonal, far)
	})

	t.Run("Same language earns a bonus", func(t *testing.T) {
		anchor := baseContext("en", 100, 2000)
		same := Score(anchor, baseContext("en", 100, 2000), 0.1, intPtr(100), 1000)
		diff := Score(anchor, baseContext("fr", 100, 2000), 0.1, intPtr(100), 1000)
		assert.Greater(t, same, diff)
		assert.InDelta(t, WeightLanguageBonus, same-diff, 1e-12)
	})

	t.Run("Runtime mismatch saturates", func(t *testing.T) {
		anchor := baseContext("en", 100, 2000)
		match := Score(anchor, baseContext("en", 100, 2000), 0.1, nil, 0)
		mismatch := Score(anchor, baseContext("en", 220, 2000), 0.1, nil, 0)
		extreme := Score(anchor, baseContext("en", 400, 2000), 0.1, nil, 0)
		assert.Greater(t, match, mismatch)
		assert.Equal(t, mismatch, extreme)
	})

	t.Run("Year mismatch is penalized", func(t *testing.T) {
		anchor := baseContext("en", 100, 2000)
		match := Score(anchor, baseContext("en", 100, 2000), 0.1, nil, 0)
		mismatch := Score(anchor, baseContext("en", 100, 2025), 0.1, nil, 0)
		assert.InDelta(t, WeightYearPenalty*0.5, match-mismatch, 1e-12)
	})

	t.Run("Missing popularity data contributes zero", func(t *testing.T) {
		anchor := baseContext("en", 100, 2000)
		none := Score(anchor, anchor, 0.1, nil, 1000)
		zeroMax := Score(anchor, anchor, 0.1, intPtr(50), 0)
		zeroVotes := Score(anchor, anchor, 0.1, intPtr(0), 1000)
		assert.Equal(t, none, zeroMax)
		assert.Equal(t, none, zeroVotes)
		assert.False(t, math.IsNaN(none))
	})

	t.Run("Unknown runtime, year and language are neutral", func(t *testing.T) {
		anchor := &ScoringContext{Genres: TokenSet{}, Keywords: TokenSet{}, Style: TokenSet{}}
		assert.InDelta(t, 0.70*0.5, Score(anchor, anchor, 0.5, nil, 0), 1e-12)
	})
}

func TestSortKey(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     SortKey
		expected bool
	}{
		{"Higher score first", SortKey{0.9, 0.5, 1}, SortKey{0.8, 0.1, 100}, true},
		{"Closer distance breaks score tie", SortKey{0.8, 0.1, 1}, SortKey{0.8, 0.2, 100}, true},
		{"Popularity breaks remaining tie", SortKey{0.8, 0.1, 50}, SortKey{0.8, 0.1, 10}, true},
		{"Identical keys are not ordered", SortKey{0.8, 0.1, 10}, SortKey{0.8, 0.1, 10}, false},
		{"Lower score second", SortKey{0.1, 0.0, 1000}, SortKey{0.2, 0.9, 0}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Before(tc.b))
		})
	}
}
