package catalog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"pathce/internal/common"
	"pathce/internal/pattern"
	"pathce/internal/statistics"
)

const (
	pathTablePrefix   = "path_"
	starTablePrefix   = "star_"
	bucketTablePrefix = "bucket_"

	metadataFile  = "metadata.json"
	dataFile      = "data.db"
	pathStatsFile = "path_stats.json"
	starStatsFile = "star_stats.json"
)

type starKey struct {
	rank common.TagId
	code string
}

// Store is a SQLite-backed Catalog. Every non-empty path or star
// shape's bucket statistics live in their own table (path_<id> /
// star_<id>); shape metadata (which LabelId maps to which pattern, and
// each schema edge's total count) lives in Go maps, exported alongside
// the database as JSON.
//
// Unlike the reference catalog (backed by an embedded OLAP engine that
// attaches and copies whole databases between memory and disk), Store
// works directly against a single on-disk SQLite file: Open creates or
// reopens that file in place, so Export/Import only need to persist
// the Go-side metadata, not the table contents.
type Store struct {
	conn *sqlite.Conn

	paths        []*pattern.PathPattern
	stars        []*pattern.GeneralPattern
	pathLabelMap map[string]common.LabelId
	starLabelMap map[starKey]common.LabelId
	edgeCountMap map[common.LabelId]int

	pathStats []statistics.PathStatistics
	starStats []statistics.StarStatistics

	nextTableID atomic.Uint64
}

var _ Catalog = (*Store)(nil)

// Open creates (or truncates) dir/data.db and seeds it with the shared
// empty-statistics sentinel tables every out-of-range LabelId resolves
// to. Export writes the rest of dir's contents (metadata and raw
// statistics, for introspection) alongside it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: mkdir %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, dataFile)
	_ = os.Remove(dbPath)
	_ = os.Remove(dbPath + "-wal")
	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dbPath, err)
	}
	s, err := newStore(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory is Open without a backing file, for tests and one-shot
// estimation runs that never export.
func OpenMemory() (*Store, error) {
	conn, err := sqlite.OpenConn(":memory:", sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("catalog: open in-memory db: %w", err)
	}
	s, err := newStore(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func newStore(conn *sqlite.Conn) (*Store, error) {
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA synchronous = NORMAL", nil); err != nil {
		return nil, fmt.Errorf("catalog: set synchronous: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA temp_store = MEMORY", nil); err != nil {
		return nil, fmt.Errorf("catalog: set temp_store: %w", err)
	}
	s := &Store{
		conn:         conn,
		pathLabelMap: make(map[string]common.LabelId),
		starLabelMap: make(map[starKey]common.LabelId),
		edgeCountMap: make(map[common.LabelId]int),
	}
	if err := s.addStarStatsTable(StarTableName(common.EmptyLabelId), nil, nil); err != nil {
		return nil, err
	}
	if err := s.addPathStatsTable(PathTableName(common.EmptyLabelId), nil, nil, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// PathTableName is the SQLite table holding a path LabelId's bucket
// statistics: (s, t, mode_s, mode_t, count), one row per nonzero
// (start bucket, end bucket) cell. Every LabelId past SentinelSplit
// shares the single all-zero table.
func PathTableName(labelID common.LabelId) string {
	if labelID > common.SentinelSplit {
		labelID = common.EmptyLabelId
	}
	return fmt.Sprintf("%s%d", pathTablePrefix, labelID)
}

// StarTableName is the SQLite table holding a star LabelId's bucket
// statistics: (id, mode, count), one row per bucket id.
func StarTableName(labelID common.LabelId) string {
	if labelID > common.SentinelSplit {
		labelID = common.EmptyLabelId
	}
	return fmt.Sprintf("%s%d", starTablePrefix, labelID)
}

func bucketTableName(labelID common.LabelId) string {
	return fmt.Sprintf("%s%d", bucketTablePrefix, labelID)
}

func (s *Store) addStarStatsTable(tableName string, count, maxDegree []uint64) error {
	ddl := fmt.Sprintf("CREATE TABLE %s (id INTEGER, mode INTEGER, count INTEGER)", tableName)
	if err := sqlitex.ExecuteTransient(s.conn, ddl, nil); err != nil {
		return fmt.Errorf("catalog: create %s: %w", tableName, err)
	}
	stmt, err := s.conn.Prepare(fmt.Sprintf("INSERT INTO %s (id, mode, count) VALUES (?, ?, ?)", tableName))
	if err != nil {
		return fmt.Errorf("catalog: prepare %s insert: %w", tableName, err)
	}
	defer func() { _ = stmt.Finalize() }()
	for i := range count {
		stmt.BindInt64(1, int64(i))
		stmt.BindInt64(2, int64(maxDegree[i]))
		stmt.BindInt64(3, int64(count[i]))
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("catalog: insert into %s: %w", tableName, err)
		}
		_ = stmt.Reset()
	}
	return nil
}

func (s *Store) addPathStatsTable(tableName string, count, startMaxDegree, endMaxDegree [][]uint64) error {
	ddl := fmt.Sprintf("CREATE TABLE %s (s INTEGER, t INTEGER, mode_s INTEGER, mode_t INTEGER, count INTEGER)", tableName)
	if err := sqlitex.ExecuteTransient(s.conn, ddl, nil); err != nil {
		return fmt.Errorf("catalog: create %s: %w", tableName, err)
	}
	stmt, err := s.conn.Prepare(fmt.Sprintf("INSERT INTO %s (s, t, mode_s, mode_t, count) VALUES (?, ?, ?, ?, ?)", tableName))
	if err != nil {
		return fmt.Errorf("catalog: prepare %s insert: %w", tableName, err)
	}
	defer func() { _ = stmt.Finalize() }()
	for i := range count {
		for j, c := range count[i] {
			if c == 0 {
				continue
			}
			stmt.BindInt64(1, int64(i))
			stmt.BindInt64(2, int64(j))
			stmt.BindInt64(3, int64(startMaxDegree[i][j]))
			stmt.BindInt64(4, int64(endMaxDegree[i][j]))
			stmt.BindInt64(5, int64(c))
			if _, err := stmt.Step(); err != nil {
				return fmt.Errorf("catalog: insert into %s: %w", tableName, err)
			}
			_ = stmt.Reset()
		}
	}
	return nil
}

func allZero2D(m [][]uint64) bool {
	for _, row := range m {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func allZero1D(v []uint64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// AddPath records a path shape's bucket statistics, allocating and
// returning its LabelId. All-zero statistics are recorded in metadata
// only (no table, to save space); callers still get a distinct LabelId
// per path, but every such id resolves to the shared empty table.
func (s *Store) AddPath(stats statistics.PathStatistics) (common.LabelId, error) {
	code := string(pattern.Encode(stats.Path))
	if _, exists := s.pathLabelMap[code]; exists {
		return 0, fmt.Errorf("catalog: path %s already in catalog", stats.Path)
	}
	emptyStats := allZero2D(stats.Count)
	labelID := common.LabelId(len(s.paths))
	if emptyStats {
		labelID += common.EmptyLabelId
	}
	s.pathLabelMap[code] = labelID
	s.paths = append(s.paths, stats.Path)
	if !emptyStats {
		if err := s.addPathStatsTable(PathTableName(labelID), stats.Count, stats.StartMaxDegree, stats.EndMaxDegree); err != nil {
			return 0, err
		}
		s.pathStats = append(s.pathStats, stats)
	}
	return labelID, nil
}

// AddStar records a star shape's bucket statistics, allocating and
// returning its LabelId. See AddPath for the empty-statistics rule.
func (s *Store) AddStar(stats statistics.StarStatistics) (common.LabelId, error) {
	key := starKey{rank: stats.CenterRank, code: string(pattern.Encode(stats.Star))}
	if _, exists := s.starLabelMap[key]; exists {
		return 0, fmt.Errorf("catalog: star %s (center rank %d) already in catalog", stats.Star, stats.CenterRank)
	}
	emptyStats := allZero1D(stats.Count)
	labelID := common.LabelId(len(s.stars))
	if emptyStats {
		labelID += common.EmptyLabelId
	}
	s.starLabelMap[key] = labelID
	s.stars = append(s.stars, stats.Star)
	if !emptyStats {
		if err := s.addStarStatsTable(StarTableName(labelID), stats.Count, stats.MaxDegree); err != nil {
			return 0, err
		}
		s.starStats = append(s.starStats, stats)
	}
	return labelID, nil
}

// AddEdgeCount records a schema edge label's total edge count.
func (s *Store) AddEdgeCount(edgeLabelID common.LabelId, count int) {
	if _, exists := s.edgeCountMap[edgeLabelID]; exists {
		panic(fmt.Sprintf("catalog: edge count for label %d already set", edgeLabelID))
	}
	s.edgeCountMap[edgeLabelID] = count
}

// AddBucketMap persists a vertex label's bucket assignment, for
// callers that asked the builder to keep it around (e.g. `pathce analyze
// --save-bucket-map`); the join engine never reads this table.
func (s *Store) AddBucketMap(labelID common.LabelId, bucketMap common.LocalBucketMap) error {
	tableName := bucketTableName(labelID)
	ddl := fmt.Sprintf("CREATE TABLE %s (id INTEGER, bucket_id INTEGER)", tableName)
	if err := sqlitex.ExecuteTransient(s.conn, ddl, nil); err != nil {
		return fmt.Errorf("catalog: create %s: %w", tableName, err)
	}
	stmt, err := s.conn.Prepare(fmt.Sprintf("INSERT INTO %s (id, bucket_id) VALUES (?, ?)", tableName))
	if err != nil {
		return fmt.Errorf("catalog: prepare %s insert: %w", tableName, err)
	}
	defer func() { _ = stmt.Finalize() }()
	for id, bucket := range bucketMap {
		stmt.BindInt64(1, int64(id))
		stmt.BindInt64(2, int64(bucket))
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("catalog: insert into %s: %w", tableName, err)
		}
		_ = stmt.Reset()
	}
	return nil
}

// Conn exposes the underlying connection to the join engine, which
// runs its variable-elimination SQL directly against it.
func (s *Store) Conn() *sqlite.Conn { return s.conn }

// NextTableID returns a fresh id for naming a temporary join-engine
// view, unique for the lifetime of this Store.
func (s *Store) NextTableID() uint64 { return s.nextTableID.Add(1) - 1 }

// Close releases the underlying connection.
func (s *Store) Close() error { return s.conn.Close() }

// Paths returns every catalogued path shape, indexed by LabelId.
func (s *Store) Paths() []*pattern.PathPattern { return s.paths }

// Stars returns every catalogued star shape, indexed by LabelId.
func (s *Store) Stars() []*pattern.GeneralPattern { return s.stars }

// String renders one "Label i, Path: ..."/"Label i, Star: ..." line per
// catalogued shape, matching the reference catalog's Display impl.
func (s *Store) String() string {
	var b strings.Builder
	for i, p := range s.paths {
		fmt.Fprintf(&b, "Label %d, Path: %s\n", i, p)
	}
	for i, st := range s.stars {
		fmt.Fprintf(&b, "Label %d, Star: %s\n", i, st)
	}
	return b.String()
}

func (s *Store) GetPathLabelID(code []byte) (common.LabelId, bool) {
	id, ok := s.pathLabelMap[string(code)]
	return id, ok
}

func (s *Store) GetPath(labelID common.LabelId) (*pattern.PathPattern, bool) {
	if labelID > common.SentinelSplit {
		labelID -= common.EmptyLabelId
	}
	i := int(labelID)
	if i < 0 || i >= len(s.paths) {
		return nil, false
	}
	return s.paths[i], true
}

func (s *Store) GetStarLabelID(rank common.TagId, code []byte) (common.LabelId, bool) {
	id, ok := s.starLabelMap[starKey{rank: rank, code: string(code)}]
	return id, ok
}

func (s *Store) GetStar(labelID common.LabelId) (*pattern.GeneralPattern, bool) {
	if labelID > common.SentinelSplit {
		labelID -= common.EmptyLabelId
	}
	i := int(labelID)
	if i < 0 || i >= len(s.stars) {
		return nil, false
	}
	return s.stars[i], true
}

func (s *Store) GetEdgeCount(labelID common.LabelId) (int, bool) {
	count, ok := s.edgeCountMap[labelID]
	return count, ok
}

// metadataOnDisk is the JSON shape of metadata.json. Map keys must be
// strings, so path codes are hex-encoded and star keys are flattened
// into a slice of entries.
type metadataOnDisk struct {
	Paths        [][]byte                  `json:"paths"`
	Stars        [][]byte                  `json:"stars"`
	PathLabelMap map[string]common.LabelId `json:"path_label_map"`
	StarLabelMap []starMapEntry            `json:"star_label_map"`
	EdgeCountMap map[common.LabelId]int    `json:"edge_count_map"`
}

type starMapEntry struct {
	Rank    common.TagId   `json:"rank"`
	Code    string         `json:"code"`
	LabelID common.LabelId `json:"label_id"`
}

// pathStatsOnDisk/starStatsOnDisk hold the same matrices as
// statistics.PathStatistics/StarStatistics, but key their owning shape
// by hex-encoded canonical code instead of embedding the pattern value
// directly (PathPattern/GeneralPattern carry unexported fields and
// would marshal to "{}").
type pathStatsOnDisk struct {
	Code           string     `json:"code"`
	Count          [][]uint64 `json:"count"`
	StartMaxDegree [][]uint64 `json:"start_max_degree"`
	EndMaxDegree   [][]uint64 `json:"end_max_degree"`
}

type starStatsOnDisk struct {
	Code       string       `json:"code"`
	CenterRank common.TagId `json:"center_rank"`
	Count      []uint64     `json:"count"`
	MaxDegree  []uint64     `json:"max_degree"`
}

// Export writes the catalog's metadata (and, for introspection, the
// raw path/star statistics) to dir. The SQLite file itself is already
// on disk at the path passed to Open and is left untouched.
func (s *Store) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir %s: %w", dir, err)
	}

	meta := metadataOnDisk{
		PathLabelMap: make(map[string]common.LabelId, len(s.pathLabelMap)),
		EdgeCountMap: s.edgeCountMap,
	}
	for _, p := range s.paths {
		b, err := pattern.MarshalGraphPattern(p)
		if err != nil {
			return fmt.Errorf("catalog: marshal path %s: %w", p, err)
		}
		meta.Paths = append(meta.Paths, b)
	}
	for _, st := range s.stars {
		b, err := pattern.MarshalGraphPattern(st)
		if err != nil {
			return fmt.Errorf("catalog: marshal star %s: %w", st, err)
		}
		meta.Stars = append(meta.Stars, b)
	}
	for code, id := range s.pathLabelMap {
		meta.PathLabelMap[hex.EncodeToString([]byte(code))] = id
	}
	for key, id := range s.starLabelMap {
		meta.StarLabelMap = append(meta.StarLabelMap, starMapEntry{Rank: key.rank, Code: hex.EncodeToString([]byte(key.code)), LabelID: id})
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}

	pathStatsOut := make([]pathStatsOnDisk, 0, len(s.pathStats))
	for _, ps := range s.pathStats {
		pathStatsOut = append(pathStatsOut, pathStatsOnDisk{
			Code:           hex.EncodeToString(pattern.Encode(ps.Path)),
			Count:          ps.Count,
			StartMaxDegree: ps.StartMaxDegree,
			EndMaxDegree:   ps.EndMaxDegree,
		})
	}
	if err := writeJSON(filepath.Join(dir, pathStatsFile), pathStatsOut); err != nil {
		return err
	}

	starStatsOut := make([]starStatsOnDisk, 0, len(s.starStats))
	for _, ss := range s.starStats {
		starStatsOut = append(starStatsOut, starStatsOnDisk{
			Code:       hex.EncodeToString(pattern.Encode(ss.Star)),
			CenterRank: ss.CenterRank,
			Count:      ss.Count,
			MaxDegree:  ss.MaxDegree,
		})
	}
	if err := writeJSON(filepath.Join(dir, starStatsFile), starStatsOut); err != nil {
		return err
	}
	return nil
}

// Import reopens dir/data.db and restores the metadata previously
// written to dir by Export.
func Import(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, dataFile)
	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dbPath, err)
	}
	s := &Store{
		conn:         conn,
		pathLabelMap: make(map[string]common.LabelId),
		starLabelMap: make(map[starKey]common.LabelId),
		edgeCountMap: make(map[common.LabelId]int),
	}

	var meta metadataOnDisk
	if err := readJSON(filepath.Join(dir, metadataFile), &meta); err != nil {
		_ = conn.Close()
		return nil, err
	}
	for _, b := range meta.Paths {
		raw, err := pattern.DecodeRawPattern(b)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: decode path: %w", err)
		}
		path, err := raw.ToPath()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: rebuild path: %w", err)
		}
		s.paths = append(s.paths, path)
	}
	for _, b := range meta.Stars {
		raw, err := pattern.DecodeRawPattern(b)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: decode star: %w", err)
		}
		star, err := raw.ToGeneral()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: rebuild star: %w", err)
		}
		s.stars = append(s.stars, star)
	}
	for hexCode, id := range meta.PathLabelMap {
		code, err := hex.DecodeString(hexCode)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: decode path label map key: %w", err)
		}
		s.pathLabelMap[string(code)] = id
	}
	for _, entry := range meta.StarLabelMap {
		code, err := hex.DecodeString(entry.Code)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("catalog: decode star label map key: %w", err)
		}
		s.starLabelMap[starKey{rank: entry.Rank, code: string(code)}] = entry.LabelID
	}
	s.edgeCountMap = meta.EdgeCountMap

	pathByCode := make(map[string]*pattern.PathPattern, len(s.paths))
	for _, p := range s.paths {
		pathByCode[string(pattern.Encode(p))] = p
	}
	var pathStatsIn []pathStatsOnDisk
	if err := readJSON(filepath.Join(dir, pathStatsFile), &pathStatsIn); err == nil {
		for _, ps := range pathStatsIn {
			code, err := hex.DecodeString(ps.Code)
			if err != nil {
				continue
			}
			p, ok := pathByCode[string(code)]
			if !ok {
				continue
			}
			s.pathStats = append(s.pathStats, statistics.PathStatistics{
				Path: p, Count: ps.Count, StartMaxDegree: ps.StartMaxDegree, EndMaxDegree: ps.EndMaxDegree,
			})
		}
	}

	starByCode := make(map[string]*pattern.GeneralPattern, len(s.stars))
	for _, st := range s.stars {
		starByCode[string(pattern.Encode(st))] = st
	}
	var starStatsIn []starStatsOnDisk
	if err := readJSON(filepath.Join(dir, starStatsFile), &starStatsIn); err == nil {
		for _, ss := range starStatsIn {
			code, err := hex.DecodeString(ss.Code)
			if err != nil {
				continue
			}
			st, ok := starByCode[string(code)]
			if !ok {
				continue
			}
			s.starStats = append(s.starStats, statistics.StarStatistics{
				Star: st, CenterRank: ss.CenterRank, Count: ss.Count, MaxDegree: ss.MaxDegree,
			})
		}
	}

	var maxTableID uint64
	for _, id := range s.pathLabelMap {
		if id <= common.SentinelSplit && uint64(id)+1 > maxTableID {
			maxTableID = uint64(id) + 1
		}
	}
	for _, id := range s.starLabelMap {
		if id <= common.SentinelSplit && uint64(id)+1 > maxTableID {
			maxTableID = uint64(id) + 1
		}
	}
	s.nextTableID.Store(maxTableID)

	return s, nil
}

func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("catalog: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("catalog: unmarshal %s: %w", path, err)
	}
	return nil
}
