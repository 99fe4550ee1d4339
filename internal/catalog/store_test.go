package catalog

import (
	"path/filepath"
	"testing"

	"pathce/internal/common"
	"pathce/internal/pattern"
	"pathce/internal/statistics"
)

func buildTestPath(t *testing.T, startLabel, edgeLabel, endLabel common.LabelId) *pattern.PathPattern {
	t.Helper()
	p, err := pattern.NewRawPattern().
		PushVertex(0, startLabel).
		PushVertex(1, endLabel).
		PushEdge(0, 0, 1, edgeLabel).
		ToPath()
	if err != nil {
		t.Fatalf("build test path: %v", err)
	}
	return p
}

func buildTestStar(t *testing.T, centerLabel, edgeLabel, leafLabel common.LabelId) (*pattern.GeneralPattern, common.TagId) {
	t.Helper()
	p, err := pattern.NewRawPattern().
		PushVertex(0, centerLabel).
		PushVertex(1, leafLabel).
		PushEdge(0, 0, 1, edgeLabel).
		ToGeneral()
	if err != nil {
		t.Fatalf("build test star: %v", err)
	}
	rank, _ := p.GetVertexRank(0)
	return p, rank
}

func TestStoreAddPathAndLookup(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer func() { _ = s.Close() }()

	path := buildTestPath(t, 0, 0, 1)
	stats := statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{3, 0}, {0, 0}},
		StartMaxDegree: [][]uint64{{2, 0}, {0, 0}},
		EndMaxDegree:   [][]uint64{{1, 0}, {0, 0}},
	}
	labelID, err := s.AddPath(stats)
	if err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	got, ok := s.GetPathLabelID(pattern.Encode(path))
	if !ok || got != labelID {
		t.Fatalf("GetPathLabelID = %v, %v, want %v, true", got, ok, labelID)
	}
	gotPath, ok := s.GetPath(labelID)
	if !ok || gotPath != path {
		t.Fatalf("GetPath = %v, %v, want %v, true", gotPath, ok, path)
	}

	var countInTable int64
	row, err := s.conn.Prepare("SELECT count(*) FROM " + PathTableName(labelID))
	if err != nil {
		t.Fatalf("prepare count: %v", err)
	}
	defer func() { _ = row.Finalize() }()
	hasRow, err := row.Step()
	if err != nil || !hasRow {
		t.Fatalf("step count: hasRow=%v err=%v", hasRow, err)
	}
	countInTable = row.ColumnInt64(0)
	if countInTable != 1 {
		t.Fatalf("path table has %d nonzero cells, want 1", countInTable)
	}
}

func TestStoreAddPathDuplicateErrors(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer func() { _ = s.Close() }()

	path := buildTestPath(t, 0, 0, 1)
	stats := statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{1}},
		StartMaxDegree: [][]uint64{{1}},
		EndMaxDegree:   [][]uint64{{1}},
	}
	if _, err := s.AddPath(stats); err != nil {
		t.Fatalf("first AddPath: %v", err)
	}
	if _, err := s.AddPath(stats); err == nil {
		t.Fatal("expected error on duplicate AddPath")
	}
}

func TestStoreEmptyStatsShareSentinelTable(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer func() { _ = s.Close() }()

	star, rank := buildTestStar(t, 0, 0, 1)
	stats := statistics.StarStatistics{
		Star:       star,
		CenterRank: rank,
		Count:      []uint64{0, 0},
		MaxDegree:  []uint64{0, 0},
	}
	labelID, err := s.AddStar(stats)
	if err != nil {
		t.Fatalf("AddStar: %v", err)
	}
	if labelID <= common.SentinelSplit {
		t.Fatalf("empty-stats star got label %d, want > SentinelSplit", labelID)
	}
	if StarTableName(labelID) != StarTableName(common.EmptyLabelId) {
		t.Fatalf("empty-stats star resolved to %s, want shared empty table", StarTableName(labelID))
	}
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := buildTestPath(t, 0, 0, 1)
	pathStats := statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{5}},
		StartMaxDegree: [][]uint64{{2}},
		EndMaxDegree:   [][]uint64{{3}},
	}
	pathLabelID, err := s.AddPath(pathStats)
	if err != nil {
		t.Fatalf("AddPath: %v", err)
	}

	star, rank := buildTestStar(t, 0, 0, 1)
	starStats := statistics.StarStatistics{
		Star:       star,
		CenterRank: rank,
		Count:      []uint64{7},
		MaxDegree:  []uint64{4},
	}
	starLabelID, err := s.AddStar(starStats)
	if err != nil {
		t.Fatalf("AddStar: %v", err)
	}
	s.AddEdgeCount(0, 42)

	if err := s.Export(dir); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	imported, err := Import(dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	defer func() { _ = imported.Close() }()

	if id, ok := imported.GetPathLabelID(pattern.Encode(path)); !ok || id != pathLabelID {
		t.Fatalf("imported GetPathLabelID = %v, %v, want %v, true", id, ok, pathLabelID)
	}
	if id, ok := imported.GetStarLabelID(rank, pattern.Encode(star)); !ok || id != starLabelID {
		t.Fatalf("imported GetStarLabelID = %v, %v, want %v, true", id, ok, starLabelID)
	}
	if count, ok := imported.GetEdgeCount(0); !ok || count != 42 {
		t.Fatalf("imported GetEdgeCount = %v, %v, want 42, true", count, ok)
	}
	if len(imported.pathStats) != 1 || imported.pathStats[0].Count[0][0] != 5 {
		t.Fatalf("imported path stats not restored: %+v", imported.pathStats)
	}
	if len(imported.starStats) != 1 || imported.starStats[0].Count[0] != 7 {
		t.Fatalf("imported star stats not restored: %+v", imported.starStats)
	}

	if _, err := filepath.Abs(dir); err != nil {
		t.Fatalf("filepath.Abs: %v", err)
	}
}

func TestGetVertexAndEdgeLabelID(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer func() { _ = s.Close() }()

	path := buildTestPath(t, 0, 0, 1)
	if _, err := s.AddPath(statistics.PathStatistics{
		Path:           path,
		Count:          [][]uint64{{1}},
		StartMaxDegree: [][]uint64{{1}},
		EndMaxDegree:   [][]uint64{{1}},
	}); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	if _, ok := GetEdgeLabelID(s, 0, 1, 0); !ok {
		t.Fatal("GetEdgeLabelID: expected a match for the edge just added")
	}

	star, rank := buildTestStar(t, 0, 0, 1)
	if rank != 0 {
		t.Fatalf("single-edge star center rank = %d, want 0", rank)
	}
	vertexPath, err := pattern.NewRawPattern().PushVertex(0, 0).ToPath()
	if err != nil {
		t.Fatalf("build vertex path: %v", err)
	}
	vertexStar := vertexPath.General()
	if _, err := s.AddStar(statistics.StarStatistics{
		Star:       vertexStar,
		CenterRank: 0,
		Count:      []uint64{1},
		MaxDegree:  []uint64{1},
	}); err != nil {
		t.Fatalf("AddStar: %v", err)
	}
	if _, ok := GetVertexLabelID(s, 0); !ok {
		t.Fatal("GetVertexLabelID: expected a match for the vertex label just added")
	}
	_ = star
}
