package parser

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"
	"github.com/strrl/distcurve/internal/anim"
	"github.com/strrl/distcurve/internal/db"
	"github.com/strrl/distcurve/internal/skeleton"
)

type Parser struct {
	db *sql.DB
}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) database() (*sql.DB, error) {
	if p.db != nil {
		return p.db, nil
	}
	database, err := db.GetDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	p.db = database
	return p.db, nil
}

func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse clip manifest %s: %w", path, err)
	}
	return &m, nil
}

// LoadClip reads a clip manifest and its keyframes. A manifest without a
// skeleton still loads; the bake pipeline rejects it later with a labeled error.
func (p *Parser) LoadClip(path string) (*anim.Clip, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	name := m.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".clip.json")
	}
	if m.Length < 0 {
		return nil, fmt.Errorf("clip %s has negative length %v", name, m.Length)
	}

	clip := &anim.Clip{
		Name:          name,
		Length:        m.Length,
		FrameRate:     m.FrameRate,
		HasRootMotion: m.RootMotion,
		ForceRootLock: m.ForceRootLock,
		SourcePath:    path,
	}

	if m.Skeleton != nil {
		clip.Skeleton, err = buildSkeleton(m.Skeleton)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", name, err)
		}
	}

	keys := make(map[string][]anim.Keyframe)
	for _, tr := range m.Tracks {
		for _, k := range tr.Keys {
			keys[tr.Bone] = append(keys[tr.Bone], anim.Keyframe{
				Time:        k.Time,
				Translation: mgl64.Vec3(k.Translation),
				Rotation:    quatFromXYZW(k.Rotation),
			})
		}
	}

	if m.Keyframes != "" {
		tablePath := m.Keyframes
		if !filepath.IsAbs(tablePath) {
			tablePath = filepath.Join(filepath.Dir(path), tablePath)
		}
		rows, err := p.FetchKeyframes(tablePath)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", name, err)
		}
		for _, r := range rows {
			keys[r.Bone] = append(keys[r.Bone], r.keyframe())
		}
	}

	for bone, k := range keys {
		clip.SetTrack(bone, anim.NewTrack(k))
	}

	for _, c := range m.Curves {
		clip.Curves = append(clip.Curves, anim.FloatCurve{Name: c.Name, Keys: c.Keys})
	}

	return clip, nil
}

func buildSkeleton(s *SkeletonJSON) (*skeleton.Skeleton, error) {
	bones := make([]skeleton.Bone, 0, len(s.Bones))
	for _, b := range s.Bones {
		bones = append(bones, skeleton.Bone{
			Name:        b.Name,
			Parent:      b.Parent,
			Translation: mgl64.Vec3(b.Translation),
			Rotation:    quatFromXYZW(b.Rotation),
		})
	}
	return skeleton.New(s.Name, bones)
}

// FetchKeyframes reads a keyframe table through DuckDB. The reader is picked
// from the file extension: .csv, .jsonl/.ndjson/.json or .parquet.
func (p *Parser) FetchKeyframes(path string) ([]KeyframeRow, error) {
	source, err := p.tableSource(path)
	if err != nil {
		return nil, err
	}

	database, err := p.database()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY "bone", "time"`, source)
	rows, err := database.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyframes: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read keyframe columns: %w", err)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.ToLower(c)] = i
	}
	for _, required := range []string{"bone", "time", "tx", "ty", "tz"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("keyframe table %s is missing column %q", path, required)
		}
	}

	var result []KeyframeRow
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan keyframe: %w", err)
		}

		row, err := keyframeFromValues(values, index)
		if err != nil {
			return nil, fmt.Errorf("keyframe table %s: %w", path, err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// KeyframeStats summarises a keyframe table without materialising it.
func (p *Parser) KeyframeStats(path string) (int, int, float64, error) {
	source, err := p.tableSource(path)
	if err != nil {
		return 0, 0, 0, err
	}

	database, err := p.database()
	if err != nil {
		return 0, 0, 0, err
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS count,
			COUNT(DISTINCT "bone") AS bones,
			MAX(CAST("time" AS DOUBLE)) AS last
		FROM %s
	`, source)

	var count, bones int
	var last sql.NullFloat64
	if err := database.QueryRow(query).Scan(&count, &bones, &last); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}

	return count, bones, last.Float64, nil
}

func (p *Parser) tableSource(path string) (string, error) {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return fmt.Sprintf("read_csv_auto(%s, header = true)", quoted), nil
	case ".jsonl", ".ndjson", ".json":
		database, err := p.database()
		if err != nil {
			return "", err
		}
		if err := db.EnsureExtension(database, "json"); err != nil {
			return "", err
		}
		return fmt.Sprintf("read_json_auto(%s)", quoted), nil
	case ".parquet":
		database, err := p.database()
		if err != nil {
			return "", err
		}
		if err := db.EnsureExtension(database, "parquet"); err != nil {
			return "", err
		}
		return fmt.Sprintf("read_parquet(%s)", quoted), nil
	default:
		return "", fmt.Errorf("unsupported keyframe table format: %s", path)
	}
}

func keyframeFromValues(values []any, index map[string]int) (KeyframeRow, error) {
	row := KeyframeRow{QW: 1}

	bone, ok := values[index["bone"]].(string)
	if !ok || bone == "" {
		return row, fmt.Errorf("keyframe without a bone name")
	}
	row.Bone = bone

	fields := []struct {
		column   string
		dst      *float64
		optional bool
	}{
		{"time", &row.Time, false},
		{"tx", &row.TX, false},
		{"ty", &row.TY, false},
		{"tz", &row.TZ, false},
		{"qx", &row.QX, true},
		{"qy", &row.QY, true},
		{"qz", &row.QZ, true},
		{"qw", &row.QW, true},
	}
	for _, f := range fields {
		i, ok := index[f.column]
		if !ok {
			continue
		}
		if values[i] == nil {
			if f.optional {
				continue
			}
			return row, fmt.Errorf("bone %s: %s is null", bone, f.column)
		}
		v, err := toFloat(values[i])
		if err != nil {
			return row, fmt.Errorf("bone %s: %s: %w", bone, f.column, err)
		}
		*f.dst = v
	}

	return row, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

func (r KeyframeRow) keyframe() anim.Keyframe {
	return anim.Keyframe{
		Time:        r.Time,
		Translation: mgl64.Vec3{r.TX, r.TY, r.TZ},
		Rotation:    mgl64.Quat{W: r.QW, V: mgl64.Vec3{r.QX, r.QY, r.QZ}},
	}
}
