package graph

import (
	"bufio"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pathce/internal/common"
	"pathce/internal/schema"
	"pathce/internal/workerpool"
)

// LabeledVertex names one vertex by its external id and vertex label.
type LabeledVertex struct {
	ID      common.VertexId
	LabelID common.LabelId
}

// LabeledGraph is the built, queryable data graph: per-label external/
// internal id bijections, per-label external id lists (in csv-arrival
// order), and a bidirectional CSR per edge label.
type LabeledGraph struct {
	vertexMap map[common.LabelId]*common.InternalVertexMap
	vertices  map[common.LabelId][]common.VertexId
	csr       map[common.LabelId]*BidirectionalCsr
}

func (g *LabeledGraph) GetNumEdges(labelID common.LabelId) (int, bool) {
	c, ok := g.csr[labelID]
	if !ok {
		return 0, false
	}
	return c.NumEdges(), true
}

func (g *LabeledGraph) InternalVertexMap(labelID common.LabelId) (*common.InternalVertexMap, bool) {
	m, ok := g.vertexMap[labelID]
	return m, ok
}

func (g *LabeledGraph) VertexLabels() []common.LabelId {
	out := make([]common.LabelId, 0, len(g.vertexMap))
	for l := range g.vertexMap {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *LabeledGraph) EdgeLabels() []common.LabelId {
	out := make([]common.LabelId, 0, len(g.csr))
	for l := range g.csr {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *LabeledGraph) Vertices(labelID common.LabelId) ([]common.VertexId, bool) {
	v, ok := g.vertices[labelID]
	return v, ok
}

func (g *LabeledGraph) Neighbors(v LabeledVertex, edgeLabelID common.LabelId, dir common.EdgeDirection) ([]common.VertexId, bool) {
	if dir == common.Out {
		return g.OutgoingNeighbors(v, edgeLabelID)
	}
	return g.IncomingNeighbors(v, edgeLabelID)
}

func (g *LabeledGraph) OutgoingNeighbors(v LabeledVertex, edgeLabelID common.LabelId) ([]common.VertexId, bool) {
	internalID, csr, ok := g.resolve(v, edgeLabelID)
	if !ok {
		return nil, false
	}
	return csr.OutgoingNeighbors(internalID), true
}

func (g *LabeledGraph) IncomingNeighbors(v LabeledVertex, edgeLabelID common.LabelId) ([]common.VertexId, bool) {
	internalID, csr, ok := g.resolve(v, edgeLabelID)
	if !ok {
		return nil, false
	}
	return csr.IncomingNeighbors(internalID), true
}

func (g *LabeledGraph) resolve(v LabeledVertex, edgeLabelID common.LabelId) (common.InternalId, *BidirectionalCsr, bool) {
	vm, ok := g.vertexMap[v.LabelID]
	if !ok {
		return 0, nil, false
	}
	internalID, ok := vm.GetByLeft(v.ID)
	if !ok {
		return 0, nil, false
	}
	csr, ok := g.csr[edgeLabelID]
	if !ok {
		return 0, nil, false
	}
	return internalID, csr, true
}

func (g *LabeledGraph) OutgoingDegree(v LabeledVertex, edgeLabelID common.LabelId) (int, bool) {
	n, ok := g.OutgoingNeighbors(v, edgeLabelID)
	return len(n), ok
}

func (g *LabeledGraph) IncomingDegree(v LabeledVertex, edgeLabelID common.LabelId) (int, bool) {
	n, ok := g.IncomingNeighbors(v, edgeLabelID)
	return len(n), ok
}

// Builder accumulates vertex/edge declarations before Build validates
// and interns them into a LabeledGraph.
type Builder struct {
	vertices      map[common.LabelId][]common.VertexId
	edges         map[common.LabelId][]edgeLit
	edgeEndpoints map[common.LabelId][2]common.LabelId
	pool          *workerpool.Pool
}

type edgeLit struct {
	src, dst common.VertexId
}

func NewBuilder(pool *workerpool.Pool) *Builder {
	return &Builder{
		vertices:      make(map[common.LabelId][]common.VertexId),
		edges:         make(map[common.LabelId][]edgeLit),
		edgeEndpoints: make(map[common.LabelId][2]common.LabelId),
		pool:          pool,
	}
}

func (b *Builder) AddVertexLabel(labelID common.LabelId) *Builder {
	if _, ok := b.vertices[labelID]; !ok {
		b.vertices[labelID] = nil
	}
	return b
}

func (b *Builder) AddEdgeLabel(labelID, srcLabel, dstLabel common.LabelId) *Builder {
	if _, ok := b.edges[labelID]; !ok {
		b.edges[labelID] = nil
		b.edgeEndpoints[labelID] = [2]common.LabelId{srcLabel, dstLabel}
	}
	return b
}

func (b *Builder) AddVertex(id common.VertexId, labelID common.LabelId) *Builder {
	b.vertices[labelID] = append(b.vertices[labelID], id)
	return b
}

func (b *Builder) AddEdge(src, dst common.VertexId, labelID common.LabelId) *Builder {
	b.edges[labelID] = append(b.edges[labelID], edgeLit{src, dst})
	return b
}

// Build interns every label's vertices into a dense internal id space
// (in parallel across labels via the builder's pool), then builds a
// bidirectional CSR per edge label from the interned endpoints.
func (b *Builder) Build() (*LabeledGraph, error) {
	labels := make([]common.LabelId, 0, len(b.vertices))
	for l := range b.vertices {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	type labelResult struct {
		vm  *common.InternalVertexMap
		err error
	}
	results := make([]labelResult, len(labels))
	err := workerpool.Scope(b.pool, func(s *workerpool.Scope) {
		for i, l := range labels {
			i, l := i, l
			s.Go(func() error {
				vm, buildErr := buildInternalVertexMap(b.vertices[l])
				results[i] = labelResult{vm: vm, err: buildErr}
				return buildErr
			})
		}
	})
	if err != nil {
		return nil, err
	}
	vertexMap := make(map[common.LabelId]*common.InternalVertexMap, len(labels))
	for i, l := range labels {
		vertexMap[l] = results[i].vm
	}

	edgeLabels := make([]common.LabelId, 0, len(b.edges))
	for l := range b.edges {
		edgeLabels = append(edgeLabels, l)
	}
	sort.Slice(edgeLabels, func(i, j int) bool { return edgeLabels[i] < edgeLabels[j] })

	csrMap := make(map[common.LabelId]*BidirectionalCsr, len(edgeLabels))
	for _, l := range edgeLabels {
		endpoints, ok := b.edgeEndpoints[l]
		if !ok {
			return nil, newGraphError("no declared endpoints for edge label %d", l)
		}
		srcMap, ok := vertexMap[endpoints[0]]
		if !ok {
			return nil, newGraphError("no vertex map for label %d", endpoints[0])
		}
		dstMap, ok := vertexMap[endpoints[1]]
		if !ok {
			return nil, newGraphError("no vertex map for label %d", endpoints[1])
		}
		bcsr, err := buildBidirectionalCsr(b.edges[l], srcMap, dstMap, b.pool)
		if err != nil {
			return nil, fmt.Errorf("edge label %d: %w", l, err)
		}
		csrMap[l] = bcsr
	}

	return &LabeledGraph{
		vertexMap: vertexMap,
		vertices:  b.vertices,
		csr:       csrMap,
	}, nil
}

func buildInternalVertexMap(vertices []common.VertexId) (*common.InternalVertexMap, error) {
	vm := common.NewInternalVertexMap()
	for internalID, vertexID := range vertices {
		if vm.Insert(vertexID, common.InternalId(internalID)) {
			return nil, newGraphError("duplicate vertex id %d found in input", vertexID)
		}
	}
	return vm, nil
}

// buildBidirectionalCsr builds the forward (src internal id -> dst
// external id) and backward (dst internal id -> src external id) CSR
// for one edge label's edge list, sorting each side by its source
// internal id before compaction.
func buildBidirectionalCsr(
	edges []edgeLit,
	srcMap, dstMap *common.InternalVertexMap,
	pool *workerpool.Pool,
) (*BidirectionalCsr, error) {
	type pairResult struct {
		fe, be edgePair
	}
	results := make([]pairResult, len(edges))
	err := workerpool.Scope(pool, func(s *workerpool.Scope) {
		const chunkSize = 4096
		for start := 0; start < len(edges); start += chunkSize {
			start := start
			end := start + chunkSize
			if end > len(edges) {
				end = len(edges)
			}
			s.Go(func() error {
				for i := start; i < end; i++ {
					e := edges[i]
					srcInternal, ok := srcMap.GetByLeft(e.src)
					if !ok {
						return newGraphError("cannot find vertex %d in the vertex map", e.src)
					}
					dstInternal, ok := dstMap.GetByLeft(e.dst)
					if !ok {
						return newGraphError("cannot find vertex %d in the vertex map", e.dst)
					}
					results[i] = pairResult{
						fe: edgePair{src: srcInternal, dst: e.dst},
						be: edgePair{src: dstInternal, dst: e.src},
					}
				}
				return nil
			})
		}
	})
	if err != nil {
		return nil, err
	}

	fes := make([]edgePair, len(edges))
	bes := make([]edgePair, len(edges))
	for i, r := range results {
		fes[i] = r.fe
		bes[i] = r.be
	}
	sortEdgePairs(fes)
	sortEdgePairs(bes)

	srcMax, _ := srcMap.MaxInternalID()
	dstMax, _ := dstMap.MaxInternalID()
	forward, err := fromSortedEdges(srcMax, fes)
	if err != nil {
		return nil, err
	}
	backward, err := fromSortedEdges(dstMax, bes)
	if err != nil {
		return nil, err
	}
	return newBidirectionalCsr(forward, backward), nil
}

// FromCSV builds a LabeledGraph from a directory of CSV files named
// "<label-name>.csv", one per schema vertex/edge label, each row's
// first (and, for edges, second) field an integer external vertex id.
func FromCSV(dir string, s *schema.Schema, delimiter rune, pool *workerpool.Pool) (*LabeledGraph, error) {
	b := NewBuilder(pool)
	for _, v := range s.Vertices() {
		b.AddVertexLabel(v.Label)
	}
	for _, e := range s.Edges() {
		b.AddEdgeLabel(e.Label, e.From, e.To)
	}
	for _, v := range s.Vertices() {
		name, _ := s.VertexLabelName(v.Label)
		if err := readVerticesCSV(b, v.Label, filepath.Join(dir, name+".csv"), delimiter); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges() {
		name, _ := s.EdgeLabelName(e.Label)
		if err := readEdgesCSV(b, e.Label, filepath.Join(dir, name+".csv"), delimiter); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func newCSVReader(path string, delimiter rune) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = delimiter
	return r, f, nil
}

func readVerticesCSV(b *Builder, labelID common.LabelId, path string, delimiter rune) error {
	r, f, err := newCSVReader(path, delimiter)
	if err != nil {
		return fmt.Errorf("open vertex csv %s: %w", path, err)
	}
	defer f.Close()
	for line := 0; ; line++ {
		record, err := r.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if len(record) == 0 {
			return newGraphError("expect vertex id in %s line %d", path, line)
		}
		var id uint64
		if _, err := fmt.Sscanf(record[0], "%d", &id); err != nil {
			return newGraphError("%s:%d: invalid vertex id %q", path, line, record[0])
		}
		b.AddVertex(common.VertexId(id), labelID)
	}
	return nil
}

func readEdgesCSV(b *Builder, labelID common.LabelId, path string, delimiter rune) error {
	r, f, err := newCSVReader(path, delimiter)
	if err != nil {
		return fmt.Errorf("open edge csv %s: %w", path, err)
	}
	defer f.Close()
	for line := 0; ; line++ {
		record, err := r.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if len(record) < 2 {
			return newGraphError("expect src,dst vertex id in %s line %d", path, line)
		}
		var src, dst uint64
		if _, err := fmt.Sscanf(record[0], "%d", &src); err != nil {
			return newGraphError("%s:%d: invalid src vertex id %q", path, line, record[0])
		}
		if _, err := fmt.Sscanf(record[1], "%d", &dst); err != nil {
			return newGraphError("%s:%d: invalid dst vertex id %q", path, line, record[1])
		}
		b.AddEdge(common.VertexId(src), common.VertexId(dst), labelID)
	}
	return nil
}

// gobImage is the serializable shape of a LabeledGraph.
type gobImage struct {
	VertexOrder map[common.LabelId][]common.VertexId
	VertexPairs map[common.LabelId][]vertexPair
	Forward     map[common.LabelId]csrImage
	Backward    map[common.LabelId]csrImage
}

type vertexPair struct {
	External common.VertexId
	Internal common.InternalId
}

type csrImage struct {
	Offsets   []int
	Neighbors []common.VertexId
}

// Export writes the graph to a single binary file via encoding/gob.
func (g *LabeledGraph) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img := gobImage{
		VertexOrder: g.vertices,
		VertexPairs: make(map[common.LabelId][]vertexPair, len(g.vertexMap)),
		Forward:     make(map[common.LabelId]csrImage, len(g.csr)),
		Backward:    make(map[common.LabelId]csrImage, len(g.csr)),
	}
	for label, vm := range g.vertexMap {
		pairs := make([]vertexPair, 0, vm.Len())
		for _, ext := range g.vertices[label] {
			internal, _ := vm.GetByLeft(ext)
			pairs = append(pairs, vertexPair{External: ext, Internal: internal})
		}
		img.VertexPairs[label] = pairs
	}
	for label, c := range g.csr {
		img.Forward[label] = csrImage{Offsets: c.forward.offsets, Neighbors: c.forward.neighbors}
		img.Backward[label] = csrImage{Offsets: c.backward.offsets, Neighbors: c.backward.neighbors}
	}
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(img); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return w.Flush()
}

// Import reads a graph written by Export.
func Import(path string) (*LabeledGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var img gobImage
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&img); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	g := &LabeledGraph{
		vertexMap: make(map[common.LabelId]*common.InternalVertexMap, len(img.VertexPairs)),
		vertices:  img.VertexOrder,
		csr:       make(map[common.LabelId]*BidirectionalCsr, len(img.Forward)),
	}
	for label, pairs := range img.VertexPairs {
		vm := common.NewInternalVertexMap()
		for _, p := range pairs {
			vm.Insert(p.External, p.Internal)
		}
		g.vertexMap[label] = vm
	}
	for label, fwd := range img.Forward {
		bwd := img.Backward[label]
		g.csr[label] = newBidirectionalCsr(
			&Csr{offsets: fwd.Offsets, neighbors: fwd.Neighbors},
			&Csr{offsets: bwd.Offsets, neighbors: bwd.Neighbors},
		)
	}
	return g, nil
}
