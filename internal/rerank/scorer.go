package rerank

import "math"

// Blend coefficients for Score. Product-tuned, keep in sync with ranking fixtures.
const (
	WeightSimilarity     = 0.70
	WeightGenreOverlap   = 0.15
	WeightStyleOverlap   = 0.10
	WeightPopularity     = 0.05
	WeightLanguageBonus  = 0.03
	WeightTonalPenalty   = 0.06
	WeightRuntimePenalty = 0.05
	WeightYearPenalty    = 0.05

	runtimeScale = 120.0
	yearScale    = 50.0
	tonalCap     = 2
)

// tonalGenres are genres whose presence changes the mood of a film enough that an
// unexpected one is penalized
var tonalGenres = NewTokenSet("comedy", "horror", "romance", "family")

// Jaccard is |A∩B| / |A∪B|, and 0 when either set is empty
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if large.Has(t) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Score blends vector similarity with content overlap for one candidate against an anchor.
// distance is a cosine distance in [0, 2]; popularity is the candidate's vote count and
// maxPopularity the largest vote count in the batch being scored.
func Score(anchor, candidate *ScoringContext, distance float64, popularity *int, maxPopularity int) float64 {
	similarity := clamp(1-distance, 0, 1)

	genreOverlap := Jaccard(anchor.Genres, candidate.Genres)
	styleOverlap := Jaccard(anchor.Style, candidate.Style)

	runtimePenalty := 0.0
	if anchor.Runtime != nil && candidate.Runtime != nil {
		runtimePenalty = math.Min(math.Abs(float64(*anchor.Runtime-*candidate.Runtime))/runtimeScale, 1)
	}

	yearPenalty := 0.0
	if anchor.Year != nil && candidate.Year != nil {
		yearPenalty = math.Min(math.Abs(float64(*anchor.Year-*candidate.Year))/yearScale, 1)
	}

	languageBonus := 0.0
	if anchor.Language != "" && candidate.Language != "" && anchor.Language == candidate.Language {
		languageBonus = 1
	}

	popularityScore := 0.0
	if maxPopularity > 0 && popularity != nil && *popularity > 0 {
		popularityScore = math.Log1p(float64(*popularity)) / math.Log1p(float64(maxPopularity))
	}

	return WeightSimilarity*similarity +
		WeightGenreOverlap*genreOverlap +
		WeightStyleOverlap*styleOverlap +
		WeightPopularity*popularityScore +
		WeightLanguageBonus*languageBonus -
		WeightTonalPenalty*TonalPenalty(anchor.Genres, candidate.Genres) -
		WeightRuntimePenalty*runtimePenalty -
		WeightYearPenalty*yearPenalty
}

// TonalPenalty counts tonal genres the candidate has and the anchor lacks,
// saturating at two mismatches: 0, 0.5 or 1
func TonalPenalty(anchorGenres, candidateGenres TokenSet) float64 {
	mismatched := 0
	for g := range candidateGenres {
		if tonalGenres.Has(g) && !anchorGenres.Has(g) {
			mismatched++
		}
	}
	if mismatched > tonalCap {
		mismatched = tonalCap
	}
	return float64(mismatched) / float64(tonalCap)
}

// SortKey orders scored candidates: higher score first, then closer distance,
// then higher popularity
type SortKey struct {
	Score      float64
	Distance   float64
	Popularity int
}

// Before reports whether k ranks ahead of other
func (k SortKey) Before(other SortKey) bool {
	if k.Score != other.Score {
		return k.Score > other.Score
	}
	if k.Distance != other.Distance {
		return k.Distance < other.Distance
	}
	return k.Popularity > other.Popularity
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
