// Package schema names the vertex/edge label alphabet of a data graph,
// their cardinality classes, and generates enumerable sub-structures
// (paths, cycles, stars) used as catalog keys.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"pathce/internal/common"
)

// ErrSchema wraps a SchemaError: unknown label, duplicate entry, or a
// disconnected schema graph.
type ErrSchema struct{ msg string }

func (e *ErrSchema) Error() string { return "schema: " + e.msg }

func newSchemaError(format string, args ...any) error {
	return &ErrSchema{msg: fmt.Sprintf(format, args...)}
}

// Vertex is one declared vertex label.
type Vertex struct {
	Label    common.LabelId
	Discrete bool
}

// Edge is one declared edge label, from src label to dst label, with
// its cardinality class. An edge label uniquely determines its
// endpoint vertex labels (schema invariant).
type Edge struct {
	From  common.LabelId
	To    common.LabelId
	Label common.LabelId
	Card  common.EdgeCardinality
}

// Schema is an immutable, validated label alphabet plus adjacency
// index, loaded once and shared read-only.
type Schema struct {
	vertexLabelNames map[string]common.LabelId
	vertexLabelIDs   map[common.LabelId]string
	edgeLabelNames   map[string]common.LabelId
	edgeLabelIDs     map[common.LabelId]string

	vertices []Vertex
	edges    []Edge

	labelToVertexIdx map[common.LabelId]int
	labelToEdgeIdx   map[common.LabelId]int
	outgoing         map[common.LabelId][]int
	incoming         map[common.LabelId][]int
}

// Builder assembles an unchecked schema before validation.
type Builder struct {
	s *Schema
}

func NewBuilder() *Builder {
	return &Builder{s: &Schema{
		vertexLabelNames: map[string]common.LabelId{},
		vertexLabelIDs:   map[common.LabelId]string{},
		edgeLabelNames:   map[string]common.LabelId{},
		edgeLabelIDs:     map[common.LabelId]string{},
	}}
}

func (b *Builder) AddVertexLabel(name string, id common.LabelId) *Builder {
	b.s.vertexLabelNames[name] = id
	b.s.vertexLabelIDs[id] = name
	return b
}

func (b *Builder) AddEdgeLabel(name string, id common.LabelId) *Builder {
	b.s.edgeLabelNames[name] = id
	b.s.edgeLabelIDs[id] = name
	return b
}

func (b *Builder) AddVertex(v Vertex) *Builder {
	b.s.vertices = append(b.s.vertices, v)
	return b
}

func (b *Builder) AddEdge(e Edge) *Builder {
	b.s.edges = append(b.s.edges, e)
	return b
}

// Build validates the accumulated declarations and produces an
// immutable Schema, failing on unknown labels, duplicates, or a
// disconnected schema graph.
func (b *Builder) Build() (*Schema, error) {
	s := b.s
	s.labelToVertexIdx = make(map[common.LabelId]int, len(s.vertices))
	s.labelToEdgeIdx = make(map[common.LabelId]int, len(s.edges))
	s.outgoing = make(map[common.LabelId][]int, len(s.vertices))
	s.incoming = make(map[common.LabelId][]int, len(s.vertices))

	for i, v := range s.vertices {
		if _, ok := s.vertexLabelIDs[v.Label]; !ok {
			return nil, newSchemaError("vertex label id %d does not exist", v.Label)
		}
		if _, dup := s.labelToVertexIdx[v.Label]; dup {
			return nil, newSchemaError("duplicate vertex label %d", v.Label)
		}
		s.labelToVertexIdx[v.Label] = i
		s.outgoing[v.Label] = nil
		s.incoming[v.Label] = nil
	}
	for i, e := range s.edges {
		if _, ok := s.edgeLabelIDs[e.Label]; !ok {
			return nil, newSchemaError("edge label id %d does not exist", e.Label)
		}
		if _, dup := s.labelToEdgeIdx[e.Label]; dup {
			return nil, newSchemaError("duplicate edge label %d", e.Label)
		}
		s.labelToEdgeIdx[e.Label] = i
	}
	for i, e := range s.edges {
		if _, ok := s.outgoing[e.From]; !ok {
			return nil, newSchemaError("vertex with label id %d does not exist", e.From)
		}
		s.outgoing[e.From] = append(s.outgoing[e.From], i)
		if _, ok := s.incoming[e.To]; !ok {
			return nil, newSchemaError("vertex with label id %d does not exist", e.To)
		}
		s.incoming[e.To] = append(s.incoming[e.To], i)
	}
	if len(s.vertices) > 0 && len(s.weakComponents()) != 1 {
		return nil, newSchemaError("schema not connected")
	}
	return s, nil
}

func (s *Schema) weakComponents() [][]common.LabelId {
	if len(s.vertices) == 0 {
		return nil
	}
	adj := make(map[common.LabelId][]common.LabelId)
	for _, e := range s.edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}
	visited := make(map[common.LabelId]bool)
	var ccs [][]common.LabelId
	for _, v := range s.vertices {
		if visited[v.Label] {
			continue
		}
		var cc []common.LabelId
		stack := []common.LabelId{v.Label}
		visited[v.Label] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cc = append(cc, u)
			for _, w := range adj[u] {
				if !visited[w] {
					visited[w] = true
					stack = append(stack, w)
				}
			}
		}
		ccs = append(ccs, cc)
	}
	return ccs
}

func (s *Schema) Vertices() []Vertex { return s.vertices }
func (s *Schema) Edges() []Edge      { return s.edges }

func (s *Schema) GetVertex(label common.LabelId) (Vertex, bool) {
	idx, ok := s.labelToVertexIdx[label]
	if !ok {
		return Vertex{}, false
	}
	return s.vertices[idx], true
}

func (s *Schema) GetEdge(label common.LabelId) (Edge, bool) {
	idx, ok := s.labelToEdgeIdx[label]
	if !ok {
		return Edge{}, false
	}
	return s.edges[idx], true
}

func (s *Schema) OutgoingEdges(vertexLabel common.LabelId) ([]Edge, bool) {
	idxs, ok := s.outgoing[vertexLabel]
	if !ok {
		return nil, false
	}
	out := make([]Edge, len(idxs))
	for i, idx := range idxs {
		out[i] = s.edges[idx]
	}
	return out, true
}

func (s *Schema) IncomingEdges(vertexLabel common.LabelId) ([]Edge, bool) {
	idxs, ok := s.incoming[vertexLabel]
	if !ok {
		return nil, false
	}
	in := make([]Edge, len(idxs))
	for i, idx := range idxs {
		in[i] = s.edges[idx]
	}
	return in, true
}

func (s *Schema) VertexLabelID(name string) (common.LabelId, bool) {
	id, ok := s.vertexLabelNames[name]
	return id, ok
}

func (s *Schema) VertexLabelName(id common.LabelId) (string, bool) {
	name, ok := s.vertexLabelIDs[id]
	return name, ok
}

func (s *Schema) EdgeLabelID(name string) (common.LabelId, bool) {
	id, ok := s.edgeLabelNames[name]
	return id, ok
}

func (s *Schema) EdgeLabelName(id common.LabelId) (string, bool) {
	name, ok := s.edgeLabelIDs[id]
	return name, ok
}

// schemaJSON is the §6 Schema file shape.
type schemaJSON struct {
	VertexLabels map[string]common.LabelId `json:"vertex_labels"`
	EdgeLabels   map[string]common.LabelId `json:"edge_labels"`
	Vertices     []struct {
		Label    common.LabelId `json:"label"`
		Discrete bool           `json:"discrete"`
	} `json:"vertices"`
	Edges []struct {
		From  common.LabelId `json:"from"`
		To    common.LabelId `json:"to"`
		Label common.LabelId `json:"label"`
		Card  string         `json:"card"`
	} `json:"edges"`
}

// Load reads and validates a Schema from the §6 JSON file format.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode schema json: %w", err)
	}
	b := NewBuilder()
	for name, id := range raw.VertexLabels {
		b.AddVertexLabel(name, id)
	}
	for name, id := range raw.EdgeLabels {
		b.AddEdgeLabel(name, id)
	}
	for _, v := range raw.Vertices {
		b.AddVertex(Vertex{Label: v.Label, Discrete: v.Discrete})
	}
	for _, e := range raw.Edges {
		card, err := common.ParseEdgeCardinality(e.Card)
		if err != nil {
			return nil, fmt.Errorf("schema edge %d: %w", e.Label, err)
		}
		b.AddEdge(Edge{From: e.From, To: e.To, Label: e.Label, Card: card})
	}
	return b.Build()
}

// Save writes the schema back out in the §6 JSON file format.
func (s *Schema) Save(path string) error {
	raw := schemaJSON{
		VertexLabels: s.vertexLabelNames,
		EdgeLabels:   s.edgeLabelNames,
	}
	for _, v := range s.vertices {
		raw.Vertices = append(raw.Vertices, struct {
			Label    common.LabelId `json:"label"`
			Discrete bool           `json:"discrete"`
		}{v.Label, v.Discrete})
	}
	for _, e := range s.edges {
		raw.Edges = append(raw.Edges, struct {
			From  common.LabelId `json:"from"`
			To    common.LabelId `json:"to"`
			Label common.LabelId `json:"label"`
			Card  string         `json:"card"`
		}{e.From, e.To, e.Label, e.Card.String()})
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema json: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
