package binning

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"pathce/internal/common"
	"pathce/internal/factorization"
)

// PkThreshold and SmallVarianceThreshold are the greedy binner's two
// tunable cutoffs: a column in which more than PkThreshold of its
// vertices have exactly one neighbor is treated as primary-key-like and
// skipped, and a bucket is no longer a split candidate once its join
// count variance is at or below SmallVarianceThreshold. Package
// internal/config exposes overrides for both; the defaults match the
// reference implementation's constants.
var (
	PkThreshold            = 0.99
	SmallVarianceThreshold = 2.0
)

// GreedyBinner spends a per-label bucket budget greedily: half the
// budget seeds an even initial partition, the rest is handed out to
// whichever buckets show the most join-key skew as path samples
// stream through Update.
type GreedyBinner struct {
	budget            int
	currentNumBuckets int
	bucketMap         common.LocalBucketMap
}

// NewGreedyBinner seeds an even initial partition of vertices into
// budget/2 buckets (ceil), leaving the remainder to be spent by
// Update.
func NewGreedyBinner(budget int, vertices []common.VertexId) *GreedyBinner {
	initialBudget := (budget + 1) / 2
	bucketMap := buildInitialBucketMap(initialBudget, vertices)
	return &GreedyBinner{
		budget:            budget - initialBudget,
		currentNumBuckets: initialBudget,
		bucketMap:         bucketMap,
	}
}

func (b *GreedyBinner) ShouldFinish() bool { return b.budget == 0 }

func (b *GreedyBinner) Finish() common.LocalBucketMap { return b.bucketMap }

// Update consumes one path sample's (vertex, neighbor) columns,
// skipping primary-key-like columns (almost every vertex has exactly
// one neighbor), and spends up to half of the remaining budget, rounded
// up, splitting the buckets with the largest join-count variance.
func (b *GreedyBinner) Update(vertexColumn, neighborColumn *factorization.ColumnRef) {
	if vertexColumn.NumItems() != neighborColumn.NumItems() {
		panic("binning: vertex and neighbor columns must have equal item counts")
	}
	if b.budget == 0 {
		return
	}
	countMap := computeCountMap(len(b.bucketMap), vertexColumn, neighborColumn)
	pkLike := 0
	for _, c := range countMap {
		if c == 1 {
			pkLike++
		}
	}
	if float64(pkLike) > PkThreshold*float64(len(countMap)) {
		return
	}

	bucketValues := computeBucketValues(countMap, b.bucketMap)
	bucketMeanVariance := computeBucketCountMeanVariance(bucketValues)

	numBucketsToAdd := (b.budget + 1) / 2
	splitNumMap := computeBucketSplitNum(bucketMeanVariance, numBucketsToAdd)
	newNumBuckets := splitBuckets(b.currentNumBuckets, b.bucketMap, bucketValues, splitNumMap)
	added := newNumBuckets - b.currentNumBuckets
	if added > numBucketsToAdd {
		panic("binning: split exceeded requested budget")
	}
	b.budget -= added
	b.currentNumBuckets = newNumBuckets
}

type countedVertex struct {
	vertex common.VertexId
	count  int
}

func computeCountMap(vertexCountHint int, vertexColumn, neighborColumn *factorization.ColumnRef) map[common.VertexId]int {
	countMap := make(map[common.VertexId]int, vertexCountHint)
	n := vertexColumn.NumItems()
	for i := 0; i < n; i++ {
		vertices, _ := vertexColumn.GetItem(i)
		neighbors, _ := neighborColumn.GetItem(i)
		multiplicity := 0
		for _, nb := range neighbors {
			if nb.IsValid() {
				multiplicity++
			}
		}
		if multiplicity == 0 {
			continue
		}
		for _, v := range vertices {
			if v.IsValid() {
				countMap[v] += multiplicity
			}
		}
	}
	return countMap
}

func computeBucketValues(countMap map[common.VertexId]int, bucketMap common.LocalBucketMap) map[common.BucketId][]countedVertex {
	bucketValues := make(map[common.BucketId][]countedVertex)
	for v, count := range countMap {
		bucketID, ok := bucketMap[v]
		if !ok {
			continue
		}
		bucketValues[bucketID] = append(bucketValues[bucketID], countedVertex{v, count})
	}
	for bucketID, values := range bucketValues {
		sort.Slice(values, func(i, j int) bool {
			if values[i].count != values[j].count {
				return values[i].count < values[j].count
			}
			return values[i].vertex < values[j].vertex
		})
		bucketValues[bucketID] = values
	}
	return bucketValues
}

type bucketStats struct {
	count    int
	mean     float64
	variance float64
}

func computeBucketCountMeanVariance(bucketValues map[common.BucketId][]countedVertex) map[common.BucketId]bucketStats {
	out := make(map[common.BucketId]bucketStats, len(bucketValues))
	for bucketID, values := range bucketValues {
		counts := make([]float64, len(values))
		squares := make([]float64, len(values))
		for i, cv := range values {
			counts[i] = float64(cv.count)
			squares[i] = float64(cv.count) * float64(cv.count)
		}
		mean := stat.Mean(counts, nil)
		sqMean := stat.Mean(squares, nil)
		out[bucketID] = bucketStats{count: len(values), mean: mean, variance: sqMean - mean*mean}
	}
	return out
}

// computeBucketSplitNum hands out budget one unit at a time to the
// bucket currently showing the largest variance (skipping buckets
// already at their maximum useful split count), stopping once budget
// is spent or no bucket has variance above the small-variance floor.
func computeBucketSplitNum(bucketStats map[common.BucketId]bucketStats, budget int) map[common.BucketId]int {
	if budget == 0 {
		panic("binning: split budget must be non-zero")
	}
	splitNum := make(map[common.BucketId]int, len(bucketStats))
	anyLarge := false
	for _, s := range bucketStats {
		if s.variance > SmallVarianceThreshold {
			anyLarge = true
			break
		}
	}
	if !anyLarge {
		return splitNum
	}

	bucketIDs := make([]common.BucketId, 0, len(bucketStats))
	for id := range bucketStats {
		bucketIDs = append(bucketIDs, id)
	}
	sort.Slice(bucketIDs, func(i, j int) bool {
		vi, vj := bucketStats[bucketIDs[i]].variance, bucketStats[bucketIDs[j]].variance
		if vi != vj {
			return vi > vj
		}
		return bucketIDs[i] < bucketIDs[j]
	})

	for budget > 0 {
		oldBudget := budget
		for _, bucketID := range bucketIDs {
			s := bucketStats[bucketID]
			if s.variance > SmallVarianceThreshold {
				if splitNum[bucketID]+1 == s.count {
					continue
				}
				splitNum[bucketID]++
				budget--
				if budget == 0 {
					break
				}
			}
		}
		if budget == oldBudget {
			break
		}
	}
	for id, n := range splitNum {
		if n == 0 {
			delete(splitNum, id)
		}
	}
	return splitNum
}

func splitBuckets(numBuckets int, bucketMap common.LocalBucketMap, bucketValues map[common.BucketId][]countedVertex, splitNumMap map[common.BucketId]int) int {
	bucketIDs := make([]common.BucketId, 0, len(splitNumMap))
	for id := range splitNumMap {
		bucketIDs = append(bucketIDs, id)
	}
	sort.Slice(bucketIDs, func(i, j int) bool { return bucketIDs[i] < bucketIDs[j] })

	for _, bucketID := range bucketIDs {
		splitNum := splitNumMap[bucketID]
		values := bucketValues[bucketID]
		counts := make([]float64, len(values))
		for i, cv := range values {
			counts[i] = float64(cv.count)
		}
		lowerbounds := ckmeansLowerBound(counts, splitNum+1)
		if len(lowerbounds) == 0 {
			continue
		}
		currentLowerboundIdx := 0
		for _, cv := range values {
			if currentLowerboundIdx != len(lowerbounds)-1 && float64(cv.count) >= lowerbounds[currentLowerboundIdx+1] {
				currentLowerboundIdx++
			}
			if currentLowerboundIdx == 0 {
				continue
			}
			bucketMap[cv.vertex] = common.BucketId(numBuckets + currentLowerboundIdx - 1)
		}
		numBuckets += currentLowerboundIdx
	}
	return numBuckets
}

// buildInitialBucketMap splits vertices (in arrival order) into budget
// equal-ish contiguous chunks: vertex_count%budget chunks of size
// ceil(vertex_count/budget), the rest of size floor(vertex_count/budget).
func buildInitialBucketMap(budget int, vertices []common.VertexId) common.LocalBucketMap {
	n := len(vertices)
	bucketMap := make(common.LocalBucketMap, n)
	if budget == 0 {
		return bucketMap
	}
	bigBucketCount := n % budget
	bigBucketSize := ceilDiv(n, budget)
	smallBucketSize := n / budget

	idx := 0
	bucketID := 0
	bigTotal := bigBucketSize * bigBucketCount
	for idx < bigTotal {
		end := idx + bigBucketSize
		if end > bigTotal {
			end = bigTotal
		}
		for _, v := range vertices[idx:end] {
			bucketMap[v] = common.BucketId(bucketID)
		}
		bucketID++
		idx = end
	}
	if smallBucketSize > 0 {
		localID := 0
		for idx < n {
			end := idx + smallBucketSize
			if end > n {
				end = n
			}
			for _, v := range vertices[idx:end] {
				bucketMap[v] = common.BucketId(bigBucketCount + localID)
			}
			localID++
			idx = end
		}
	}
	return bucketMap
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
