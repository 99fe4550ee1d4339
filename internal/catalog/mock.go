package catalog

import (
	"pathce/internal/common"
	"pathce/internal/pattern"
)

// MockCatalog is an in-memory Catalog with no backing SQLite tables,
// for tests of the decomposer and join engine that only need shape
// lookups, not real statistics queries.
type MockCatalog struct {
	paths        []*pattern.PathPattern
	stars        []*pattern.GeneralPattern
	pathLabelMap map[string]common.LabelId
	starLabelMap map[starKey]common.LabelId
	edgeCountMap map[common.LabelId]int
}

var _ Catalog = (*MockCatalog)(nil)

// NewMockCatalog returns an empty MockCatalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		pathLabelMap: make(map[string]common.LabelId),
		starLabelMap: make(map[starKey]common.LabelId),
		edgeCountMap: make(map[common.LabelId]int),
	}
}

// AddPath registers a path shape, returning its (possibly
// preexisting) LabelId.
func (m *MockCatalog) AddPath(path *pattern.PathPattern) common.LabelId {
	code := string(pattern.Encode(path))
	if id, ok := m.pathLabelMap[code]; ok {
		return id
	}
	id := common.LabelId(len(m.paths))
	m.pathLabelMap[code] = id
	m.paths = append(m.paths, path)
	return id
}

// AddStar registers a star shape centered at rank, returning its
// (possibly preexisting) LabelId.
func (m *MockCatalog) AddStar(star *pattern.GeneralPattern, rank common.TagId) common.LabelId {
	key := starKey{rank: rank, code: string(pattern.Encode(star))}
	if id, ok := m.starLabelMap[key]; ok {
		return id
	}
	id := common.LabelId(len(m.stars))
	m.starLabelMap[key] = id
	m.stars = append(m.stars, star)
	return id
}

func (m *MockCatalog) AddEdgeCount(edgeLabelID common.LabelId, count int) {
	m.edgeCountMap[edgeLabelID] = count
}

func (m *MockCatalog) GetPathLabelID(code []byte) (common.LabelId, bool) {
	id, ok := m.pathLabelMap[string(code)]
	return id, ok
}

func (m *MockCatalog) GetPath(labelID common.LabelId) (*pattern.PathPattern, bool) {
	i := int(labelID)
	if i < 0 || i >= len(m.paths) {
		return nil, false
	}
	return m.paths[i], true
}

func (m *MockCatalog) GetStarLabelID(rank common.TagId, code []byte) (common.LabelId, bool) {
	id, ok := m.starLabelMap[starKey{rank: rank, code: string(code)}]
	return id, ok
}

func (m *MockCatalog) GetStar(labelID common.LabelId) (*pattern.GeneralPattern, bool) {
	i := int(labelID)
	if i < 0 || i >= len(m.stars) {
		return nil, false
	}
	return m.stars[i], true
}

func (m *MockCatalog) GetEdgeCount(labelID common.LabelId) (int, bool) {
	count, ok := m.edgeCountMap[labelID]
	return count, ok
}
