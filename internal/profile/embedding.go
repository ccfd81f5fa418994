package profile

import "math"

// EmbeddingRow is one rated movie's embedding. A nil Embedding means the movie has none yet.
type EmbeddingRow struct {
	MovieID   int64
	Embedding []float32
	Rating    *int
}

// BuildWeightedEmbedding averages the embeddings of rows with positive weight.
// The vector length is taken from the first non-nil embedding; rows with a different
// length are skipped. Returns nil when nothing contributes.
func BuildWeightedEmbedding(rows []EmbeddingRow, weight WeightFunc) []float32 {
	dim := 0
	for _, row := range rows {
		if row.Embedding != nil {
			dim = len(row.Embedding)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	total := 0.0
	for _, row := range rows {
		if len(row.Embedding) != dim {
			continue
		}
		w := weight(row.Rating)
		if w <= 0 {
			continue
		}
		for i, v := range row.Embedding {
			sum[i] += float64(v) * w
		}
		total += w
	}
	if total <= 0 {
		return nil
	}

	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / total)
	}
	return out
}

// countWeighted returns how many rows would contribute to BuildWeightedEmbedding
func countWeighted(rows []EmbeddingRow, weight WeightFunc) int {
	dim := 0
	for _, row := range rows {
		if row.Embedding != nil {
			dim = len(row.Embedding)
			break
		}
	}
	n := 0
	for _, row := range rows {
		if dim > 0 && len(row.Embedding) == dim && weight(row.Rating) > 0 {
			n++
		}
	}
	return n
}

// Norm is the L2 norm of an embedding
func Norm(embedding []float32) float64 {
	sum := 0.0
	for _, v := range embedding {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
