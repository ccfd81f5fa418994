package rerank

import (
	"math"
	"sort"
	"time"
)

// Content is the subset of a movie record that feeds content similarity
type Content struct {
	Genres      string
	Keywords    string
	Runtime     *int
	ReleaseDate *time.Time
	Language    string
}

// WeightedContent pairs a content record with its aggregation weight.
// Rows with Weight <= 0 are excluded from aggregation.
type WeightedContent struct {
	Content
	Weight float64
}

// ScoringContext is the comparable feature view of one movie or of a weighted group of movies.
// Style is always a subset of Keywords.
type ScoringContext struct {
	Genres   TokenSet
	Keywords TokenSet
	Style    TokenSet
	Runtime  *int
	Year     *int
	Language string
}

// BuildSingle builds the context of one movie without weighting
func BuildSingle(c Content) *ScoringContext {
	keywords := ParseTokenSet(c.Keywords)
	return &ScoringContext{
		Genres:   ParseTokenSet(c.Genres),
		Keywords: keywords,
		Style:    StyleSubset(keywords),
		Runtime:  c.Runtime,
		Year:     ExtractYear(c.ReleaseDate),
		Language: NormalizeLanguage(c.Language),
	}
}

// BuildWeightedAggregate folds many rated movies into one context.
// Token weights accumulate per row weight; genres and keywords keep the top
// capGenres/capKeywords tokens ordered by weight, ties broken lexicographically.
// Returns nil when no row carries positive weight.
func BuildWeightedAggregate(rows []WeightedContent, capGenres, capKeywords int) *ScoringContext {
	genreWeights := map[string]float64{}
	keywordWeights := map[string]float64{}
	languageWeights := map[string]float64{}
	var runtimeTotal, runtimeWeight float64
	var yearTotal, yearWeight float64
	var totalWeight float64

	for _, row := range rows {
		w := row.Weight
		if w <= 0 {
			continue
		}
		totalWeight += w

		for g := range ParseTokenSet(row.Genres) {
			genreWeights[g] += w
		}
		for k := range ParseTokenSet(row.Keywords) {
			keywordWeights[k] += w
		}

		if row.Runtime != nil && *row.Runtime > 0 {
			runtimeTotal += float64(*row.Runtime) * w
			runtimeWeight += w
		}

		if year := ExtractYear(row.ReleaseDate); year != nil && *year > 0 {
			yearTotal += float64(*year) * w
			yearWeight += w
		}

		if lang := NormalizeLanguage(row.Language); lang != "" {
			languageWeights[lang] += w
		}
	}

	if totalWeight <= 0 {
		return nil
	}

	keywords := NewTokenSet(topTokens(keywordWeights, capKeywords)...)
	ctx := &ScoringContext{
		Genres:   NewTokenSet(topTokens(genreWeights, capGenres)...),
		Keywords: keywords,
		Style:    StyleSubset(keywords),
		Runtime:  weightedMean(runtimeTotal, runtimeWeight),
		Year:     weightedMean(yearTotal, yearWeight),
	}
	if langs := topTokens(languageWeights, 1); len(langs) == 1 {
		ctx.Language = langs[0]
	}
	return ctx
}

// topTokens returns up to limit tokens by descending weight, then ascending token
func topTokens(weights map[string]float64, limit int) []string {
	if limit <= 0 || len(weights) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(weights))
	for t := range weights {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		wi, wj := weights[tokens[i]], weights[tokens[j]]
		if wi != wj {
			return wi > wj
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}

func weightedMean(total, weight float64) *int {
	if weight <= 0 {
		return nil
	}
	mean := int(math.Round(total / weight))
	return &mean
}
