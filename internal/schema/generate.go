package schema

import (
	"sort"

	"pathce/internal/common"
	"pathce/internal/pattern"
)

// GeneratePaths enumerates every canonical path of exactly length
// edges rooted at every vertex label, deduplicated by canonical code.
// Used by the catalog builder as its set of path shapes.
func (s *Schema) GeneratePaths(length int) []*pattern.PathPattern {
	return s.generatePathsInner(length, true)
}

// GeneratePathsWithoutManyToOne is GeneratePaths restricted to
// ManyToMany edges, used by the generate-patterns command.
func (s *Schema) GeneratePathsWithoutManyToOne(length int) []*pattern.PathPattern {
	return s.generatePathsInner(length, false)
}

func (s *Schema) generatePathsInner(length int, withManyToOne bool) []*pattern.PathPattern {
	byCode := make(map[string]*pattern.PathPattern)
	var order []string
	for _, v := range s.vertices {
		for code, p := range s.generatePathsFromVertexInner(v.Label, length, withManyToOne) {
			if _, ok := byCode[code]; !ok {
				order = append(order, code)
			}
			byCode[code] = p
		}
	}
	sort.Strings(order)
	out := make([]*pattern.PathPattern, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out
}

// GeneratePathsFromVertex enumerates canonical paths of exactly length
// edges rooted at one vertex label.
func (s *Schema) GeneratePathsFromVertex(vertexLabel common.LabelId, length int) []*pattern.PathPattern {
	m := s.generatePathsFromVertexInner(vertexLabel, length, true)
	out := make([]*pattern.PathPattern, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	return out
}

func (s *Schema) generatePathsFromVertexInner(vertexLabel common.LabelId, length int, withManyToOne bool) map[string]*pattern.PathPattern {
	paths := make(map[string]*pattern.PathPattern)
	start, err := pattern.NewRawPattern().PushVertex(0, vertexLabel).ToPath()
	if err != nil {
		panic(err)
	}
	queue := []*pattern.PathPattern{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.Len() == length {
			code := string(pattern.Encode(p))
			if _, ok := paths[code]; !ok {
				paths[code] = p
			}
			continue
		}
		end := p.End()
		raw := pattern.FromGraphPattern(p)
		nextVertexTag := raw.NextVertexTagID()
		nextEdgeTag := raw.NextEdgeTagID()

		if out, ok := s.OutgoingEdges(end.LabelID); ok {
			for _, e := range out {
				if skipCardinality(e.Card, withManyToOne) {
					continue
				}
				child := pattern.FromGraphPattern(p)
				child.PushVertex(nextVertexTag, e.To)
				child.PushEdge(nextEdgeTag, end.TagID, nextVertexTag, e.Label)
				if cp, err := child.ToPath(); err == nil {
					queue = append(queue, cp)
				}
			}
		}
		if in, ok := s.IncomingEdges(end.LabelID); ok {
			for _, e := range in {
				if skipCardinality(e.Card, withManyToOne) {
					continue
				}
				child := pattern.FromGraphPattern(p)
				child.PushVertex(nextVertexTag, e.From)
				child.PushEdge(nextEdgeTag, nextVertexTag, end.TagID, e.Label)
				if cp, err := child.ToPath(); err == nil {
					queue = append(queue, cp)
				}
			}
		}
	}
	return paths
}

// PathTreeNode is one node of a PathTree: a path pattern plus the set
// of one-edge-longer paths grown from its end vertex.
type PathTreeNode struct {
	path     *pattern.PathPattern
	children []*PathTreeNode
}

func (n *PathTreeNode) Path() *pattern.PathPattern { return n.path }
func (n *PathTreeNode) Children() []*PathTreeNode  { return n.children }

// PathTree roots a family of paths all sharing the same start vertex,
// organized so that each node's children extend it by exactly one
// edge from its end. Statistics are summarized bottom-up by walking
// this tree, reusing a parent's per-vertex counts when computing a
// child's.
type PathTree struct{ root *PathTreeNode }

func (t *PathTree) Root() *PathTreeNode { return t.root }

// GeneratePathTreeFromPathEnd builds the tree of every extension of
// path (grown only from its end vertex) up to maxLength total edges.
func (s *Schema) GeneratePathTreeFromPathEnd(path *pattern.PathPattern, maxLength int) *PathTree {
	root := &PathTreeNode{path: path}
	s.growPathTree(root, maxLength)
	return &PathTree{root: root}
}

func (s *Schema) growPathTree(node *PathTreeNode, maxLength int) {
	if node.path.Len() >= maxLength {
		return
	}
	end := node.path.End()
	nextVertexTag := pattern.FromGraphPattern(node.path).NextVertexTagID()
	nextEdgeTag := pattern.FromGraphPattern(node.path).NextEdgeTagID()

	if out, ok := s.OutgoingEdges(end.LabelID); ok {
		for _, e := range out {
			child := pattern.FromGraphPattern(node.path)
			child.PushVertex(nextVertexTag, e.To)
			child.PushEdge(nextEdgeTag, end.TagID, nextVertexTag, e.Label)
			cp, err := child.ToPath()
			if err != nil {
				continue
			}
			childNode := &PathTreeNode{path: cp}
			node.children = append(node.children, childNode)
			s.growPathTree(childNode, maxLength)
		}
	}
	if in, ok := s.IncomingEdges(end.LabelID); ok {
		for _, e := range in {
			child := pattern.FromGraphPattern(node.path)
			child.PushVertex(nextVertexTag, e.From)
			child.PushEdge(nextEdgeTag, nextVertexTag, end.TagID, e.Label)
			cp, err := child.ToPath()
			if err != nil {
				continue
			}
			childNode := &PathTreeNode{path: cp}
			node.children = append(node.children, childNode)
			s.growPathTree(childNode, maxLength)
		}
	}
}

func skipCardinality(card common.EdgeCardinality, withManyToOne bool) bool {
	if withManyToOne {
		return false
	}
	switch card {
	case common.OneToOne, common.ManyToOne, common.OneToMany:
		return true
	default:
		return false
	}
}

// GenerateStars enumerates every canonical degree-d star rooted at
// every vertex label, deduplicated by canonical code.
func (s *Schema) GenerateStars(degree int) []*pattern.GeneralPattern {
	if degree == 0 {
		return nil
	}
	byCode := make(map[string]*pattern.GeneralPattern)
	var order []string
	for _, v := range s.vertices {
		incident := s.incidentEdges(v.Label)
		for _, comb := range combinations(incident, degree) {
			raw := pattern.NewRawPattern()
			centerTag := raw.NextVertexTagID()
			raw.PushVertex(centerTag, v.Label)
			for _, e := range comb {
				if e.From == v.Label {
					nbrTag := raw.NextVertexTagID()
					raw.PushVertex(nbrTag, e.To)
					raw.PushEdge(raw.NextEdgeTagID(), centerTag, nbrTag, e.Label)
				} else {
					nbrTag := raw.NextVertexTagID()
					raw.PushVertex(nbrTag, e.From)
					raw.PushEdge(raw.NextEdgeTagID(), nbrTag, centerTag, e.Label)
				}
			}
			star, err := raw.ToGeneral()
			if err != nil {
				continue
			}
			code := string(pattern.Encode(star))
			if _, ok := byCode[code]; !ok {
				order = append(order, code)
			}
			byCode[code] = star
		}
	}
	sort.Strings(order)
	out := make([]*pattern.GeneralPattern, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out
}

func (s *Schema) incidentEdges(label common.LabelId) []Edge {
	out, _ := s.OutgoingEdges(label)
	in, _ := s.IncomingEdges(label)
	all := make([]Edge, 0, len(out)+len(in))
	all = append(all, out...)
	all = append(all, in...)
	return all
}

func combinations(items []Edge, k int) [][]Edge {
	if k > len(items) {
		return nil
	}
	var result [][]Edge
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		comb := make([]Edge, k)
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

// GenerateCycles enumerates every canonical length-length cycle,
// deduplicated by canonical code.
func (s *Schema) GenerateCycles(length int) []*pattern.GeneralPattern {
	if length == 0 {
		return nil
	}
	paths := s.GeneratePaths(length - 1)
	var cycles []*pattern.GeneralPattern
	seen := make(map[string]bool)
	for _, p := range paths {
		start, end := p.Start(), p.End()
		if out, ok := s.OutgoingEdges(start.LabelID); ok {
			for _, e := range out {
				if e.To != end.LabelID {
					continue
				}
				raw := pattern.FromGraphPattern(p)
				raw.PushEdge(raw.NextEdgeTagID(), start.TagID, end.TagID, e.Label)
				cycle, err := raw.ToGeneral()
				if err != nil {
					continue
				}
				code := string(pattern.Encode(cycle))
				if !seen[code] {
					seen[code] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		if in, ok := s.IncomingEdges(start.LabelID); ok {
			for _, e := range in {
				if e.From != end.LabelID {
					continue
				}
				raw := pattern.FromGraphPattern(p)
				raw.PushEdge(raw.NextEdgeTagID(), end.TagID, start.TagID, e.Label)
				cycle, err := raw.ToGeneral()
				if err != nil {
					continue
				}
				code := string(pattern.Encode(cycle))
				if !seen[code] {
					seen[code] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}
	return cycles
}
