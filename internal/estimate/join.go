// Package estimate turns a decomposed pattern into a SQL join over the
// catalog's bucket-statistics tables, and runs that join as a chain of
// temp views: one view per original edge, then one view per vertex
// eliminated from the pattern, shrinking by a variable-elimination
// order until a single scalar cardinality remains.
package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/decompose"
)

// Join runs variable elimination over pattern's catalog edges against
// conn, calling nextTableID for every temp view it needs a fresh name
// for. If order is non-empty, vertices are eliminated in that exact
// sequence (used by Estimator.EstimateWithOrder to keep the plan
// stable across repeated calls with the same pattern shape); otherwise
// each step greedily eliminates the vertex with fewest remaining
// neighbors, breaking ties toward the lower tag id.
func Join(pattern *decompose.CatalogPattern, conn *sqlite.Conn, nextTableID func() uint64, order []common.TagId) (float64, error) {
	slog.Debug("estimate: join", "edges", len(pattern.Edges()))
	j := &joinState{
		pattern:      pattern,
		conn:         conn,
		nextTableID:  nextTableID,
		edgeTableMap: make(map[common.TagId]string),
	}
	card, err := j.run(order)
	if err != nil {
		return 0, err
	}
	slog.Debug("estimate: join done", "card", card)
	return card, nil
}

type joinState struct {
	pattern      *decompose.CatalogPattern
	conn         *sqlite.Conn
	nextTableID  func() uint64
	edgeTableMap map[common.TagId]string
}

func (j *joinState) newTableID() uint64 {
	return j.nextTableID()
}

func (j *joinState) run(order []common.TagId) (float64, error) {
	if j.pattern.VerticesNum() < 1 {
		return 0, fmt.Errorf("estimate: join: pattern has no vertices")
	}
	if j.pattern.EdgesNum() < 1 {
		return 0, fmt.Errorf("estimate: join: pattern has no edges")
	}
	for _, e := range j.pattern.Edges() {
		tableName, err := j.createTempTable(e)
		if err != nil {
			return 0, err
		}
		j.edgeTableMap[e.TagID] = tableName
	}

	if len(order) > 0 {
		for _, victim := range order {
			if j.pattern.VerticesNum() <= 1 {
				break
			}
			if err := j.eliminateVertex(victim); err != nil {
				return 0, err
			}
		}
	} else {
		for j.pattern.VerticesNum() > 1 {
			victim := j.chooseVictimVertex()
			if err := j.eliminateVertex(victim); err != nil {
				return 0, err
			}
		}
	}
	return j.finalize()
}

func (j *joinState) finalize() (float64, error) {
	if j.pattern.VerticesNum() != 1 {
		return 0, fmt.Errorf("estimate: join: finalize with %d vertices left", j.pattern.VerticesNum())
	}
	if j.pattern.EdgesNum() == 0 {
		return 0, fmt.Errorf("estimate: join: finalize with no edges left")
	}
	finalTableName := fmt.Sprintf("temp_result_%d", j.newTableID())
	tables := make([]string, 0, j.pattern.EdgesNum())
	for _, e := range j.pattern.Edges() {
		tables = append(tables, j.edgeTableMap[e.TagID])
	}
	vertex := j.pattern.Vertices()[0]
	sql := buildFinalizeStatement(tables, vertex.TagID)
	sql = buildFinalAggStatement(sql)
	sql = buildViewStatement(sql, finalTableName)
	if err := execSQL(j.conn, sql); err != nil {
		return 0, err
	}
	return readScalarFloat(j.conn, finalTableName)
}

func (j *joinState) eliminateVertex(vertexTagID common.TagId) error {
	slog.Debug("estimate: eliminate vertex", "tag", vertexTagID)
	incident, ok := j.pattern.IncidentEdges(vertexTagID)
	if !ok {
		return fmt.Errorf("estimate: join: vertex %d not in pattern", vertexTagID)
	}
	tables := make([]string, 0, len(incident))
	vertexToTables := make(map[common.TagId][]string)
	for _, e := range incident {
		tableName := j.edgeTableMap[e.TagID]
		tables = append(tables, tableName)
		for _, v := range e.Kind.IncidentVertices() {
			vertexToTables[v] = append(vertexToTables[v], tableName)
		}
	}

	neighbors := make([]common.TagId, 0, len(vertexToTables))
	for v := range vertexToTables {
		if v != vertexTagID {
			neighbors = append(neighbors, v)
		}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })

	nextTableName := fmt.Sprintf("temp_table_%d", j.newTableID())
	sql := buildMatchStatement(tables, vertexToTables, vertexTagID, neighbors)
	sql = buildAggStatement(sql, neighbors)
	sql = buildViewStatement(sql, nextTableName)
	if err := execSQL(j.conn, sql); err != nil {
		return err
	}

	nextEdgeTagID := j.pattern.NextEdgeTagID()
	var newEdge decompose.CatalogEdge
	switch len(neighbors) {
	case 1:
		newEdge = decompose.NewStarEdge(nextEdgeTagID, 0, neighbors[0])
	case 2:
		newEdge = decompose.NewPathEdge(nextEdgeTagID, 0, neighbors[0], neighbors[1])
	default:
		newEdge = decompose.NewGeneralEdge(nextEdgeTagID, 0, neighbors)
	}
	if _, dup := j.edgeTableMap[newEdge.TagID]; dup {
		return fmt.Errorf("estimate: join: edge tag %d already mapped", newEdge.TagID)
	}
	j.edgeTableMap[newEdge.TagID] = nextTableName
	j.pattern.RemoveVertex(vertexTagID)
	j.pattern.AddEdge(newEdge)
	return nil
}

// chooseVictimVertex picks the vertex with fewest remaining distinct
// neighbors, breaking ties toward the lower tag id so the elimination
// order is deterministic across calls against the same pattern shape.
func (j *joinState) chooseVictimVertex() common.TagId {
	var victim common.TagId
	has := false
	minNeighbors := -1
	for _, v := range j.pattern.Vertices() {
		neighbors := make(map[common.TagId]bool)
		incident, _ := j.pattern.IncidentEdges(v.TagID)
		for _, e := range incident {
			for _, n := range e.Kind.IncidentVertices() {
				neighbors[n] = true
			}
		}
		delete(neighbors, v.TagID)
		switch {
		case !has || len(neighbors) < minNeighbors:
			minNeighbors = len(neighbors)
			victim = v.TagID
			has = true
		case len(neighbors) == minNeighbors && v.TagID < victim:
			victim = v.TagID
		}
	}
	return victim
}

func readScalarFloat(conn *sqlite.Conn, tableName string) (float64, error) {
	sql := fmt.Sprintf("select * from %s", tableName)
	var result float64
	found := false
	err := sqlitex.ExecuteTransient(conn, sql, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			result = stmt.ColumnFloat(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("estimate: join: read %s: %w", tableName, err)
	}
	if !found {
		return 0, nil
	}
	return result, nil
}

func buildFinalAggStatement(sql string) string {
	return fmt.Sprintf("select sum(_count) as _count from (%s)", sql)
}

func buildFinalizeStatement(tables []string, vertex common.TagId) string {
	if len(tables) == 1 {
		return fmt.Sprintf("select v%d, _count from %s", vertex, tables[0])
	}
	fromClause := strings.Join(tables, ", ")
	var whereParts []string
	for i := 0; i+1 < len(tables); i++ {
		whereParts = append(whereParts, fmt.Sprintf("%s.v%d = %s.v%d", tables[i], vertex, tables[i+1], vertex))
	}

	multipliers := make(map[string]string, len(tables))
	for i, ti := range tables {
		var terms []string
		for j, tj := range tables {
			if i == j {
				continue
			}
			terms = append(terms, fmt.Sprintf("%s.v%d_mode", tj, vertex))
		}
		multipliers[ti] = strings.Join(terms, " * ")
	}

	newCount := leastAsCount(tables, func(t string) string {
		return fmt.Sprintf("%s._count * %s", t, multipliers[t])
	})
	return fmt.Sprintf("select %s.v%d as v%d, %s from %s where %s",
		tables[0], vertex, vertex, newCount, fromClause, strings.Join(whereParts, " and "))
}

func buildMatchStatement(tables []string, vertexToTables map[common.TagId][]string, victim common.TagId, neighbors []common.TagId) string {
	fromClause := strings.Join(tables, ", ")

	var whereParts []string
	for _, v := range sortedTagKeys(vertexToTables) {
		ts := vertexToTables[v]
		for i := 0; i+1 < len(ts); i++ {
			whereParts = append(whereParts, fmt.Sprintf("%s.v%d = %s.v%d", ts[i], v, ts[i+1], v))
		}
	}

	multipliers := make(map[string]string, len(tables))
	for i, ti := range tables {
		var terms []string
		for j, tj := range tables {
			if i == j {
				continue
			}
			terms = append(terms, fmt.Sprintf("%s.v%d_mode", tj, victim))
		}
		multiplier := strings.Join(terms, " * ")
		if multiplier == "" {
			multiplier = "1"
		}
		multipliers[ti] = multiplier
	}

	newCount := leastAsCount(tables, func(t string) string {
		return fmt.Sprintf("%s._count * %s", t, multipliers[t])
	})

	var newModes []string
	var neighborCols []string
	for _, neighbor := range neighbors {
		table := vertexToTables[neighbor][0]
		multiplier := multipliers[table]
		newModes = append(newModes, fmt.Sprintf("%s.v%d_mode * %s as v%d_mode", table, neighbor, multiplier, neighbor))
		neighborCols = append(neighborCols, fmt.Sprintf("%s.v%d as v%d", table, neighbor, neighbor))
	}

	selectList := strings.Join(append(append([]string{}, neighborCols...), append(newModes, newCount)...), ", ")
	if len(whereParts) == 0 {
		return fmt.Sprintf("select %s from %s", selectList, fromClause)
	}
	return fmt.Sprintf("select %s from %s where %s", selectList, fromClause, strings.Join(whereParts, " and "))
}

func buildAggStatement(sql string, neighbors []common.TagId) string {
	if len(neighbors) == 0 {
		panic("estimate: join: buildAggStatement with no neighbors")
	}
	var modes []string
	var cols []string
	for _, n := range neighbors {
		modes = append(modes, fmt.Sprintf("sum(v%d_mode) as v%d_mode", n, n))
		cols = append(cols, fmt.Sprintf("v%d", n))
	}
	return fmt.Sprintf("select %s, %s, sum(_count) as _count from (%s) group by %s",
		strings.Join(cols, ", "), strings.Join(modes, ", "), sql, strings.Join(cols, ", "))
}

func buildViewStatement(sql, tableName string) string {
	return fmt.Sprintf("create temp view %s as (%s)", tableName, sql)
}

// leastAsCount builds the "least(...) as _count" projection for a join
// step: SQLite's multi-argument min() plays the role of the reference
// engine's least(...) function, but unlike least(), SQLite's min()
// called with a SINGLE argument is the aggregate form (collapsing every
// row of the result set) rather than a scalar per-row minimum — so
// with only one table in play there is nothing to take the least of,
// and the term is projected as _count directly instead of through
// min(...).
func leastAsCount(tables []string, expr func(string) string) string {
	if len(tables) == 1 {
		return fmt.Sprintf("%s as _count", expr(tables[0]))
	}
	var parts []string
	for _, t := range tables {
		parts = append(parts, expr(t))
	}
	return fmt.Sprintf("min(%s) as _count", strings.Join(parts, ", "))
}

func sortedTagKeys(m map[common.TagId][]string) []common.TagId {
	out := make([]common.TagId, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// createTempTable projects a catalog shape's bucket-statistics table
// (path_<id> or star_<id>, see package catalog) into a temp view named
// after the pattern's own vertex tags, so every downstream join
// statement can refer to v<tag> / v<tag>_mode uniformly regardless of
// which catalog shape backs it.
func (j *joinState) createTempTable(edge decompose.CatalogEdge) (string, error) {
	tableID := j.newTableID()
	var sql, tempTableName string
	switch edge.Kind.Type {
	case decompose.KindStar:
		center := edge.Kind.Center
		tempTableName = fmt.Sprintf("temp_star_%d", tableID)
		original := catalog.StarTableName(edge.LabelID)
		sql = fmt.Sprintf(`
create temp view %s as (
select
    id as v%d,
    cast(mode as real) as v%d_mode,
    cast(count as real) as _count
from
    %s
)`, tempTableName, center, center, original)
	case decompose.KindPath:
		src, dst := edge.Kind.Src, edge.Kind.Dst
		tempTableName = fmt.Sprintf("temp_path_%d", tableID)
		original := catalog.PathTableName(edge.LabelID)
		if src != dst {
			sql = fmt.Sprintf(`
create temp view %s as (
select
    s as v%d,
    t as v%d,
    cast(mode_s as real) as v%d_mode,
    cast(mode_t as real) as v%d_mode,
    cast(count as real) as _count
from
    %s
)`, tempTableName, src, dst, src, dst, original)
		} else {
			sql = fmt.Sprintf(`
create temp view %s as (
select
    s as v%d,
    cast(min(mode_s, mode_t) as real) as v%d_mode,
    cast(count as real) as _count
from
    %s
where
    s = t
)`, tempTableName, src, src, original)
		}
	default:
		return "", fmt.Errorf("estimate: join: unsupported catalog edge kind %v for temp table", edge.Kind.Type)
	}
	if err := execSQL(j.conn, sql); err != nil {
		return "", err
	}
	return tempTableName, nil
}

func execSQL(conn *sqlite.Conn, sql string) error {
	slog.Log(context.Background(), slog.LevelDebug-4, "estimate: sql", "stmt", sql)
	return sqlitex.ExecuteScript(conn, sql, nil)
}
