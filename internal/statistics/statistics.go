// Package statistics computes, per schema vertex label, the path and
// star statistics the catalog is built from: bucket x bucket count and
// max-degree matrices for every path shape up to a configured length,
// and count/max-degree vectors for every star shape up to a configured
// degree.
package statistics

import (
	"sort"

	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/pattern"
	"pathce/internal/schema"
	"pathce/internal/workerpool"
)

// PathStatistics is the summarized statistics for one canonical path
// shape: count[i][j] and {start,end}MaxDegree[i][j] are the count and
// maximum degree of walks whose start vertex falls in bucket i and
// end vertex falls in bucket j.
type PathStatistics struct {
	Path           *pattern.PathPattern
	Count          [][]uint64
	StartMaxDegree [][]uint64
	EndMaxDegree   [][]uint64
}

// StarStatistics is the summarized statistics for one canonical star
// shape, from the perspective of center vertices ranked centerRank:
// Count[i] and MaxDegree[i] describe center vertices in bucket i.
type StarStatistics struct {
	Star       *pattern.GeneralPattern
	CenterRank common.TagId
	Count      []uint64
	MaxDegree  []uint64
}

type starStateKey struct {
	rank common.TagId
	code string
}

type starStateEntry struct {
	path  *pattern.PathPattern
	count []uint64
}

// starState accumulates, per vertex label, one entry per (rank,
// canonical path code) pair seen while building up star statistics
// from shorter paths.
type starState map[common.LabelId]map[starStateKey]starStateEntry

// Analyzer computes path and star statistics against one graph,
// binned by a precomputed bucket assignment.
type Analyzer struct {
	graph         *graph.LabeledGraph
	schema        *schema.Schema
	bucketMap     common.GlobalBucketMap
	buckets       int
	maxPathLength int
	maxStarLength int
	maxStarDegree int
	pool          *workerpool.Pool

	bucketValues map[common.LabelId][][]common.VertexId
}

// New returns an Analyzer. buckets is the per-label bucket count used
// by bucketMap; maxPathLength/maxStarLength/maxStarDegree bound the
// path and star shapes considered.
func New(
	g *graph.LabeledGraph,
	s *schema.Schema,
	bucketMap common.GlobalBucketMap,
	buckets, maxPathLength, maxStarLength, maxStarDegree int,
	pool *workerpool.Pool,
) *Analyzer {
	return &Analyzer{
		graph:         g,
		schema:        s,
		bucketMap:     bucketMap,
		buckets:       buckets,
		maxPathLength: maxPathLength,
		maxStarLength: maxStarLength,
		maxStarDegree: maxStarDegree,
		pool:          pool,
	}
}

func (a *Analyzer) ensureBucketValues() {
	if a.bucketValues != nil {
		return
	}
	out := make(map[common.LabelId][][]common.VertexId, len(a.schema.Vertices()))
	for _, v := range a.schema.Vertices() {
		out[v.Label] = a.bucketValuesForLabel(v.Label)
	}
	a.bucketValues = out
}

// bucketValuesForLabel groups one label's vertex ids by bucket id.
func (a *Analyzer) bucketValuesForLabel(label common.LabelId) [][]common.VertexId {
	values := make([][]common.VertexId, a.buckets)
	local := a.bucketMap[label]
	for v, bucket := range local {
		values[bucket] = append(values[bucket], v)
	}
	for _, bucket := range values {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i] < bucket[j] })
	}
	return values
}

func zeroVec(n int) []uint64 { return make([]uint64, n) }

func addAssign(dst, src []uint64) {
	for i, v := range src {
		dst[i] += v
	}
}

func maxAssign(dst, src []uint64) {
	for i, v := range src {
		if v > dst[i] {
			dst[i] = v
		}
	}
}

// ComputePathStatistics builds PathStatistics for every canonical path
// shape of length 1..=maxPathLength, keyed by canonical path code.
func (a *Analyzer) ComputePathStatistics() map[string]PathStatistics {
	a.ensureBucketValues()
	results := a.initPathStatistics()

	for _, v := range a.schema.Vertices() {
		root, err := pattern.NewRawPattern().PushVertex(0, v.Label).ToPath()
		if err != nil {
			panic(err)
		}
		tree := a.schema.GeneratePathTreeFromPathEnd(root, a.maxPathLength)
		vertexMap, _ := a.graph.InternalVertexMap(v.Label)
		countMatrix := a.initPathCountMatrixForVertex(v.Label)
		for _, child := range tree.Root().Children() {
			a.computePathStatisticsRecursive(child, vertexMap, countMatrix, 0, results)
		}
	}

	out := make(map[string]PathStatistics, len(results))
	for code, r := range results {
		if r.endMaxDegree == nil || r.count == nil {
			panic("statistics: path " + code + " never visited")
		}
		if r.startMaxDegree == nil {
			r.startMaxDegree = r.endMaxDegree
		}
		out[code] = PathStatistics{
			Path:           r.path,
			Count:          r.count,
			StartMaxDegree: r.startMaxDegree,
			EndMaxDegree:   r.endMaxDegree,
		}
	}
	return out
}

type pathStatisticsBuilder struct {
	path           *pattern.PathPattern
	count          [][]uint64
	startMaxDegree [][]uint64
	endMaxDegree   [][]uint64
}

func (a *Analyzer) initPathStatistics() map[string]pathStatisticsBuilder {
	results := make(map[string]pathStatisticsBuilder)
	for _, v := range a.schema.Vertices() {
		root, err := pattern.NewRawPattern().PushVertex(0, v.Label).ToPath()
		if err != nil {
			panic(err)
		}
		tree := a.schema.GeneratePathTreeFromPathEnd(root, a.maxPathLength)
		queue := append([]*schema.PathTreeNode(nil), tree.Root().Children()...)
		for len(queue) > 0 {
			node := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			code := string(pattern.Encode(node.Path()))
			if _, ok := results[code]; !ok {
				results[code] = pathStatisticsBuilder{path: node.Path()}
			}
			queue = append(queue, node.Children()...)
		}
	}
	return results
}

func (a *Analyzer) initPathCountMatrix(buckets, n int) [][]uint64 {
	m := make([][]uint64, n)
	for i := range m {
		m[i] = zeroVec(buckets)
	}
	return m
}

// initPathCountMatrixForVertex seeds the base case for the recursion:
// each vertex's count vector has a single 1 in its own bucket slot.
func (a *Analyzer) initPathCountMatrixForVertex(vertexLabel common.LabelId) [][]uint64 {
	vertexMap, _ := a.graph.InternalVertexMap(vertexLabel)
	localBucketMap := a.bucketMap[vertexLabel]
	countMatrix := a.initPathCountMatrix(a.buckets, vertexMap.Len())
	for internalID := 0; internalID < vertexMap.Len(); internalID++ {
		vertexID, _ := vertexMap.GetByRight(common.InternalId(internalID))
		bucketID := localBucketMap[vertexID]
		countMatrix[internalID][bucketID] = 1
	}
	return countMatrix
}

// computePathStatisticsRecursive accumulates node's per-internal-id
// count vectors from its parent's, then records or transposes them
// into results depending on whether node's summarized vertex is the
// statistics path's start or end, before recursing into children.
func (a *Analyzer) computePathStatisticsRecursive(
	node *schema.PathTreeNode,
	parentVertexMap *common.InternalVertexMap,
	parentCountMatrix [][]uint64,
	parentVertexTag common.TagId,
	results map[string]pathStatisticsBuilder,
) {
	path := node.Path()
	edge := path.Edges()[len(path.Edges())-1]
	vertex := path.End()

	vertexMap, _ := a.graph.InternalVertexMap(vertex.LabelID)
	countMatrix := a.initPathCountMatrix(a.buckets, vertexMap.Len())

	var direction common.EdgeDirection
	switch parentVertexTag {
	case edge.Src:
		direction = common.In
	case edge.Dst:
		direction = common.Out
	default:
		panic("statistics: edge does not touch parent vertex")
	}

	err := workerpool.Scope(a.pool, func(s *workerpool.Scope) {
		for internalID := 0; internalID < vertexMap.Len(); internalID++ {
			internalID := internalID
			s.Go(func() error {
				vertexID, _ := vertexMap.GetByRight(common.InternalId(internalID))
				neighbors, _ := a.graph.Neighbors(graph.LabeledVertex{ID: vertexID, LabelID: vertex.LabelID}, edge.LabelID, direction)
				vec := countMatrix[internalID]
				for _, nbr := range neighbors {
					nbrInternalID, ok := parentVertexMap.GetByLeft(nbr)
					if !ok {
						continue
					}
					addAssign(vec, parentCountMatrix[nbrInternalID])
				}
				return nil
			})
		}
	})
	if err != nil {
		panic(err)
	}

	localBucketValues := a.bucketValues[vertex.LabelID]
	code := string(pattern.Encode(path))
	statistics := results[code]
	vertexRank, _ := path.GetVertexRank(vertex.TagID)
	pathVertex, _ := statistics.path.GetVertexFromRank(vertexRank)

	switch {
	case pathVertex.TagID == statistics.path.Start().TagID:
		if statistics.count == nil {
			statistics.count = a.summarizeCount(countMatrix, vertexMap, localBucketValues)
		}
		if statistics.startMaxDegree == nil {
			statistics.startMaxDegree = a.summarizeMaxDegree(countMatrix, vertexMap, localBucketValues)
		}
	case pathVertex.TagID == statistics.path.End().TagID:
		if statistics.count == nil {
			statistics.count = transpose(a.summarizeCount(countMatrix, vertexMap, localBucketValues))
		}
		if statistics.endMaxDegree == nil {
			statistics.endMaxDegree = transpose(a.summarizeMaxDegree(countMatrix, vertexMap, localBucketValues))
		}
	default:
		panic("statistics: path vertex is neither start nor end")
	}
	results[code] = statistics

	for _, child := range node.Children() {
		a.computePathStatisticsRecursive(child, vertexMap, countMatrix, vertex.TagID, results)
	}
}

func transpose(m [][]uint64) [][]uint64 {
	n := len(m)
	out := make([][]uint64, n)
	for i := range out {
		out[i] = make([]uint64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func (a *Analyzer) summarizeCount(countMatrix [][]uint64, vertexMap *common.InternalVertexMap, bucketValues [][]common.VertexId) [][]uint64 {
	out := make([][]uint64, len(bucketValues))
	for i, values := range bucketValues {
		sum := zeroVec(a.buckets)
		for _, vertexID := range values {
			internalID, _ := vertexMap.GetByLeft(vertexID)
			addAssign(sum, countMatrix[internalID])
		}
		out[i] = sum
	}
	return out
}

func (a *Analyzer) summarizeMaxDegree(countMatrix [][]uint64, vertexMap *common.InternalVertexMap, bucketValues [][]common.VertexId) [][]uint64 {
	out := make([][]uint64, len(bucketValues))
	for i, values := range bucketValues {
		max := zeroVec(a.buckets)
		for _, vertexID := range values {
			internalID, _ := vertexMap.GetByLeft(vertexID)
			maxAssign(max, countMatrix[internalID])
		}
		out[i] = max
	}
	return out
}

func (a *Analyzer) summarizeCountForVec(countVec []uint64, vertexMap *common.InternalVertexMap, bucketValues [][]common.VertexId) []uint64 {
	out := make([]uint64, len(bucketValues))
	for i, values := range bucketValues {
		var sum uint64
		for _, vertexID := range values {
			internalID, _ := vertexMap.GetByLeft(vertexID)
			sum += countVec[internalID]
		}
		out[i] = sum
	}
	return out
}

func (a *Analyzer) summarizeMaxDegreeForVec(countVec []uint64, vertexMap *common.InternalVertexMap, bucketValues [][]common.VertexId) []uint64 {
	out := make([]uint64, len(bucketValues))
	for i, values := range bucketValues {
		var max uint64
		for _, vertexID := range values {
			internalID, _ := vertexMap.GetByLeft(vertexID)
			if c := countVec[internalID]; c > max {
				max = c
			}
		}
		out[i] = max
	}
	return out
}

// ComputeStarStatistics builds StarStatistics for every canonical star
// shape rooted at a common center: the single vertex, every single
// path of length 1..=maxPathLength, and every merge of up to
// maxStarDegree paths of length 1..=maxStarLength, keyed by
// (centerRank, canonical star code).
func (a *Analyzer) ComputeStarStatistics() map[starStateKey]StarStatistics {
	a.ensureBucketValues()
	state := make(starState)
	for length := 0; length <= a.maxPathLength; length++ {
		a.updateStarState(state, length)
	}

	starStatistics := make(map[starStateKey]StarStatistics)
	for _, v := range a.schema.Vertices() {
		current := state[v.Label]

		var vertexPath *pattern.PathPattern
		var vertexCount []uint64
		for _, entry := range current {
			if entry.path.IsEmpty() {
				vertexPath, vertexCount = entry.path, entry.count
				break
			}
		}
		bucketValues := a.bucketValues[v.Label]
		vertexMap, _ := a.graph.InternalVertexMap(v.Label)
		count := a.summarizeCountForVec(vertexCount, vertexMap, bucketValues)
		maxDegree := a.summarizeMaxDegreeForVec(vertexCount, vertexMap, bucketValues)
		centerRank, _ := vertexPath.GetVertexRank(vertexPath.Start().TagID)
		starStatistics[starStateKey{centerRank, string(pattern.Encode(vertexPath))}] = StarStatistics{
			Star:       vertexPath.General(),
			CenterRank: centerRank,
			Count:      count,
			MaxDegree:  maxDegree,
		}

		a.combineStarStatesForPaths(current, starStatistics)
		for degree := 1; degree <= a.maxStarDegree; degree++ {
			a.combineStarStatesForStars(v.Label, degree, current, starStatistics)
		}
	}
	return starStatistics
}

func (a *Analyzer) combineStarStatesForPaths(state map[starStateKey]starStateEntry, stats map[starStateKey]StarStatistics) {
	for _, entry := range state {
		if entry.path.IsEmpty() {
			continue
		}
		labelID := entry.path.Start().LabelID
		centerRank, _ := entry.path.GetVertexRank(entry.path.Start().TagID)
		key := starStateKey{centerRank, string(pattern.Encode(entry.path))}
		if _, ok := stats[key]; !ok {
			bucketValues := a.bucketValues[labelID]
			vertexMap, _ := a.graph.InternalVertexMap(labelID)
			stats[key] = StarStatistics{
				Star:       entry.path.General(),
				CenterRank: centerRank,
				Count:      a.summarizeCountForVec(entry.count, vertexMap, bucketValues),
				MaxDegree:  a.summarizeMaxDegreeForVec(entry.count, vertexMap, bucketValues),
			}
		}
		if entry.path.IsSymmetric() {
			endRank, _ := entry.path.GetVertexRank(entry.path.End().TagID)
			endKey := starStateKey{endRank, string(pattern.Encode(entry.path))}
			if _, ok := stats[endKey]; !ok {
				existing := stats[key]
				existing.CenterRank = endRank
				stats[endKey] = existing
			}
		}
	}
}

func (a *Analyzer) combineStarStatesForStars(labelID common.LabelId, degree int, state map[starStateKey]starStateEntry, stats map[starStateKey]StarStatistics) {
	var candidates []starStateEntry
	for _, entry := range state {
		if entry.path.IsEmpty() || entry.path.Len() > a.maxStarLength {
			continue
		}
		candidates = append(candidates, entry)
	}
	for _, comb := range combinations(candidates, degree) {
		paths := make([]*pattern.PathPattern, len(comb))
		for i, c := range comb {
			paths[i] = c.path
		}
		star, centerRank := pattern.MergePathsToStar(paths)
		key := starStateKey{centerRank, string(pattern.Encode(star))}
		if _, ok := stats[key]; ok {
			continue
		}
		count := append([]uint64(nil), comb[0].count...)
		for _, other := range comb[1:] {
			for i := range count {
				count[i] *= other.count[i]
			}
		}
		bucketValues := a.bucketValues[labelID]
		vertexMap, _ := a.graph.InternalVertexMap(labelID)
		stats[key] = StarStatistics{
			Star:       star,
			CenterRank: centerRank,
			Count:      a.summarizeCountForVec(count, vertexMap, bucketValues),
			MaxDegree:  a.summarizeMaxDegreeForVec(count, vertexMap, bucketValues),
		}
	}
}

func combinations(items []starStateEntry, k int) [][]starStateEntry {
	if k <= 0 || k > len(items) {
		return nil
	}
	var result [][]starStateEntry
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		comb := make([]starStateEntry, k)
		for i, ix := range idx {
			comb[i] = items[ix]
		}
		result = append(result, comb)
		i := k - 1
		for i >= 0 && idx[i] == i+len(items)-k {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return result
}

func (a *Analyzer) updateStarState(state starState, currentLength int) {
	for _, v := range a.schema.Vertices() {
		if currentLength == 0 {
			current := state[v.Label]
			if current == nil {
				current = make(map[starStateKey]starStateEntry)
				state[v.Label] = current
			}
			path, err := pattern.NewRawPattern().PushVertex(0, v.Label).ToPath()
			if err != nil {
				panic(err)
			}
			rank, _ := path.GetVertexRank(0)
			vertexMap, _ := a.graph.InternalVertexMap(v.Label)
			count := make([]uint64, vertexMap.Len())
			for i := range count {
				count[i] = 1
			}
			key := starStateKey{rank, string(pattern.Encode(path))}
			if _, ok := current[key]; !ok {
				current[key] = starStateEntry{path: path, count: count}
			}
			continue
		}
		a.updateStarStateInner(v.Label, currentLength, state, common.Out)
		a.updateStarStateInner(v.Label, currentLength, state, common.In)
	}
}

// updateStarStateInner grows state[sourceLabel] by one edge: for each
// schema edge touching sourceLabel in direction dir, every suffix
// path already known for the edge's far endpoint is extended by one
// leading vertex+edge (sourceLabel, dir), and the extended path's
// per-vertex count vector is accumulated by summing each source
// vertex's neighbor counts from the (shorter) suffix state.
func (a *Analyzer) updateStarStateInner(sourceLabel common.LabelId, currentLength int, state starState, direction common.EdgeDirection) {
	var edges []schema.Edge
	if direction == common.Out {
		edges, _ = a.schema.OutgoingEdges(sourceLabel)
	} else {
		edges, _ = a.schema.IncomingEdges(sourceLabel)
	}
	vertexMap, _ := a.graph.InternalVertexMap(sourceLabel)

	for _, e := range edges {
		var startLabel common.LabelId
		if direction == common.Out {
			startLabel = e.To
		} else {
			startLabel = e.From
		}
		suffixes := a.schema.GeneratePathsFromVertex(startLabel, currentLength-1)
		var symmetric []*pattern.PathPattern
		for _, suf := range suffixes {
			if suf.Start().LabelID == suf.End().LabelID {
				symmetric = append(symmetric, suf.Reverse())
			}
		}
		suffixes = append(suffixes, symmetric...)

		for _, suffix := range suffixes {
			start := suffix.Start()
			startRank, _ := suffix.GetVertexRank(start.TagID)
			startState := state[start.LabelID]
			startEntry := startState[starStateKey{startRank, string(pattern.Encode(suffix))}]
			startVertexMap, _ := a.graph.InternalVertexMap(start.LabelID)

			countVec := zeroVec(vertexMap.Len())
			err := workerpool.Scope(a.pool, func(s *workerpool.Scope) {
				for internalID := 0; internalID < vertexMap.Len(); internalID++ {
					internalID := internalID
					s.Go(func() error {
						vertexID, _ := vertexMap.GetByRight(common.InternalId(internalID))
						var neighbors []common.VertexId
						if direction == common.Out {
							neighbors, _ = a.graph.OutgoingNeighbors(graph.LabeledVertex{ID: vertexID, LabelID: sourceLabel}, e.Label)
						} else {
							neighbors, _ = a.graph.IncomingNeighbors(graph.LabeledVertex{ID: vertexID, LabelID: sourceLabel}, e.Label)
						}
						var total uint64
						for _, nbr := range neighbors {
							nbrInternalID, ok := startVertexMap.GetByLeft(nbr)
							if !ok {
								continue
							}
							total += startEntry.count[nbrInternalID]
						}
						countVec[internalID] = total
						return nil
					})
				}
			})
			if err != nil {
				panic(err)
			}

			oldStartTag := suffix.Start().TagID
			raw := pattern.FromGraphPattern(suffix)
			nextVertexTag := raw.NextVertexTagID()
			nextEdgeTag := raw.NextEdgeTagID()
			raw.PushFrontVertex(nextVertexTag, sourceLabel)
			if direction == common.Out {
				raw.PushFrontEdge(nextEdgeTag, nextVertexTag, oldStartTag, e.Label)
			} else {
				raw.PushFrontEdge(nextEdgeTag, oldStartTag, nextVertexTag, e.Label)
			}
			path, err := raw.ToPath()
			if err != nil {
				panic(err)
			}
			if path.Len() != currentLength {
				panic("statistics: extended path has unexpected length")
			}
			rank, _ := path.GetVertexRank(nextVertexTag)
			current := state[sourceLabel]
			if current == nil {
				current = make(map[starStateKey]starStateEntry)
				state[sourceLabel] = current
			}
			key := starStateKey{rank, string(pattern.Encode(path))}
			if _, ok := current[key]; !ok {
				current[key] = starStateEntry{path: path, count: countVec}
			}
		}
	}
}
