package binning

import "math"

// ckmeansLowerBound partitions a non-decreasing slice of values into
// at most k contiguous 1-D k-means clusters (minimizing total
// within-cluster sum of squared deviations from the cluster mean,
// solved exactly by dynamic programming), returning each cluster's
// lower bound (its first value) in ascending order. No ckmeans
// package exists in the retrieved pack; this is a direct port of the
// standard Wang & Song univariate k-means DP, documented as a stdlib
// exception in DESIGN.md.
func ckmeansLowerBound(values []float64, k int) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	prefixSum := make([]float64, n+1)
	prefixSq := make([]float64, n+1)
	for i, v := range values {
		prefixSum[i+1] = prefixSum[i] + v
		prefixSq[i+1] = prefixSq[i] + v*v
	}
	cost := func(m, i int) float64 {
		if i <= m {
			return 0
		}
		count := float64(i - m)
		sum := prefixSum[i] - prefixSum[m]
		sq := prefixSq[i] - prefixSq[m]
		mean := sum / count
		return sq - count*mean*mean
	}

	// D[j][i]: min cost of clustering values[0:i] into j clusters.
	// B[j][i]: split point achieving that minimum.
	d := make([][]float64, k+1)
	b := make([][]int, k+1)
	for j := range d {
		d[j] = make([]float64, n+1)
		b[j] = make([]int, n+1)
		for i := range d[j] {
			d[j][i] = math.Inf(1)
		}
	}
	d[0][0] = 0
	for j := 1; j <= k; j++ {
		for i := j; i <= n; i++ {
			best := math.Inf(1)
			bestM := j - 1
			for m := j - 1; m < i; m++ {
				if d[j-1][m] == math.Inf(1) {
					continue
				}
				c := d[j-1][m] + cost(m, i)
				if c < best {
					best = c
					bestM = m
				}
			}
			d[j][i] = best
			b[j][i] = bestM
		}
	}

	bounds := make([]int, 0, k)
	i := n
	for j := k; j >= 1; j-- {
		m := b[j][i]
		bounds = append(bounds, m)
		i = m
	}
	// bounds was collected from the last cluster backward; reverse it
	// and drop any cluster start index the DP never reached.
	lowerbounds := make([]float64, 0, k)
	for idx := len(bounds) - 1; idx >= 0; idx-- {
		start := bounds[idx]
		if start >= n {
			continue
		}
		lowerbounds = append(lowerbounds, values[start])
	}
	return lowerbounds
}
