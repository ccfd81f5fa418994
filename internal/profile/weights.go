package profile

// WeightFunc maps a rating to an aggregation weight. A weight <= 0 excludes the row.
type WeightFunc func(rating *int) float64

// PositiveWeight weighs liked movies: 3 gets the fixed neutral weight, 4 and 5 get rating/5,
// anything lower or missing is excluded
func PositiveWeight(neutral float64) WeightFunc {
	return func(rating *int) float64 {
		if rating == nil || *rating < 3 {
			return 0
		}
		if *rating == 3 {
			return neutral
		}
		return float64(*rating) / 5.0
	}
}

// NegativeWeight weighs disliked movies: 1 gets 1.0, 2 gets 0.5, everything else is excluded
func NegativeWeight(rating *int) float64 {
	if rating == nil {
		return 0
	}
	switch *rating {
	case 1:
		return 1.0
	case 2:
		return 0.5
	}
	return 0
}
