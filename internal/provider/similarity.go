package provider

import "math"

// EuclideanDistance returns the L2 distance between two embeddings.
// Vectors of different or zero length are never comparable and yield +Inf.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
