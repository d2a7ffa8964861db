package zeroshot

import "math"

// softmax converts a logit row into normalized probabilities, shifted by the
// row maximum for numerical stability.
func softmax(row []float32) []float32 {
	if len(row) == 0 {
		return nil
	}
	max := row[0]
	for _, v := range row[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float32, len(row))
	var sum float64
	for i, v := range row {
		e := math.Exp(float64(v - max))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// argmax returns the index of the largest value, the first one on ties.
func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
