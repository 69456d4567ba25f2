package storage

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/rs/zerolog"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownBackend = errors.New("unknown storage type")

// Store is the gorm-backed curve library.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to the backend named by cfg.Type. The caller must not call
// it for type "none".
func Open(cfg config.StorageConfig, log zerolog.Logger) (*Store, error) {
	switch cfg.Type {
	case "sqlite":
		return OpenSQLite(cfg.SQLite.Path, log)
	case "postgres":
		return OpenPostgres(cfg.Postgres, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}
}

// OpenSQLite opens a SQLite file, or an in-memory database when path is empty.
func OpenSQLite(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	// every in-memory connection is its own database
	sqlDB.SetMaxOpenConns(1)

	if path == "" {
		log.Info().Msg("Using SQLite curve library in memory")
	} else {
		log.Info().Str("path", path).Msg("Using SQLite curve library")
	}

	return New(db, log)
}

func OpenPostgres(cfg config.PostgresConfig, log zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)

	log.Debug().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connecting to Postgres curve library")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return New(db, log)
}

// New wraps an open gorm DB and migrates the schema.
func New(db *gorm.DB, log zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&BakedCurve{}); err != nil {
		return nil, fmt.Errorf("failed to migrate curve library: %w", err)
	}
	return &Store{
		db:     db,
		logger: log.With().Str("component", "storage").Logger(),
	}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Find returns the stored curve or gorm.ErrRecordNotFound.
func (s *Store) Find(clip, curveName string) (*BakedCurve, error) {
	var row BakedCurve
	err := s.db.Where("clip = ? AND LOWER(curve_name) = LOWER(?)", clip, curveName).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) List(clip string) ([]BakedCurve, error) {
	var rows []BakedCurve
	q := s.db.Order("clip, curve_name")
	if clip != "" {
		q = q.Where("clip = ?", clip)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list curves: %w", err)
	}
	return rows, nil
}

// DecodeKeys returns the stored curve keys.
func (c *BakedCurve) DecodeKeys() ([]signals.CurveKey, error) {
	var keys []signals.CurveKey
	if len(c.Keys) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(c.Keys, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode keys of %s/%s: %w", c.Clip, c.CurveName, err)
	}
	return keys, nil
}

// CurveMeta describes the bake whose keys a Backend stores.
type CurveMeta struct {
	BakeID        string
	Clip          string
	Bone          string
	Axis          string
	SampleRate    int
	ReferenceTime float64
	StopAtEnd     bool
	Path          []signals.TrajectorySample
}

func MetaFromResult(r *pipeline.Result) CurveMeta {
	return CurveMeta{
		BakeID:        r.BakeID.String(),
		Clip:          r.Clip,
		Bone:          r.Settings.BoneName,
		Axis:          r.Settings.Axis.String(),
		SampleRate:    r.Settings.SampleRate,
		ReferenceTime: r.ReferenceTime,
		StopAtEnd:     r.Settings.StopAtEnd,
		Path:          r.Path,
	}
}

// Backend is the curve sink for one clip.
type Backend struct {
	store *Store
	meta  CurveMeta
	depth int
	label string
}

func (s *Store) Backend(meta CurveMeta) *Backend {
	return &Backend{store: s, meta: meta}
}

func (b *Backend) BeginEdit(label string) {
	if b.depth == 0 {
		b.label = label
	}
	b.depth++
}

// EnsureCurve creates an empty row for the curve if there is none yet.
// Curve names match case-insensitively.
func (b *Backend) EnsureCurve(name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("curve name is empty")
	}

	var row BakedCurve
	err := b.curveQuery(name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = BakedCurve{
			Clip:      b.meta.Clip,
			CurveName: name,
			Keys:      datatypes.JSON("[]"),
		}
		err = b.store.db.Create(&row).Error
	}
	if err != nil {
		return false, fmt.Errorf("failed to ensure curve %s/%s: %w", b.meta.Clip, name, err)
	}
	return true, nil
}

func (b *Backend) curveQuery(name string) *gorm.DB {
	return b.store.db.Where("clip = ? AND LOWER(curve_name) = LOWER(?)", b.meta.Clip, name)
}

func (b *Backend) ReplaceCurveKeys(name string, keys []signals.CurveKey) error {
	if b.depth == 0 {
		return fmt.Errorf("replace keys of %q outside of an edit", name)
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode keys: %w", err)
	}

	path, err := PathWKT(b.meta.Path)
	if err != nil {
		b.store.logger.Debug().Err(err).Str("asset", b.meta.Clip).Msg("Path is not a valid line string, storing none")
		path = ""
	}

	res := b.curveQuery(name).Model(&BakedCurve{}).
		Updates(map[string]any{
			"curve_name":     name,
			"bake_id":        b.meta.BakeID,
			"edit_label":     b.label,
			"bone":           b.meta.Bone,
			"axis":           b.meta.Axis,
			"sample_rate":    b.meta.SampleRate,
			"reference_time": b.meta.ReferenceTime,
			"stop_at_end":    b.meta.StopAtEnd,
			"key_count":      len(keys),
			"keys":           datatypes.JSON(data),
			"path":           path,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to store curve %s/%s: %w", b.meta.Clip, name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("curve %s/%s does not exist", b.meta.Clip, name)
	}

	b.store.logger.Debug().
		Str("asset", b.meta.Clip).
		Str("curve", name).
		Int("keys", len(keys)).
		Msg("Stored curve")
	return nil
}

func (b *Backend) EndEdit() error {
	if b.depth == 0 {
		return fmt.Errorf("end edit without a matching begin")
	}
	b.depth--
	return nil
}

// RemoveCurve deletes the curve row; a missing row is not an error.
func (b *Backend) RemoveCurve(name string) error {
	err := b.curveQuery(name).Delete(&BakedCurve{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove curve %s/%s: %w", b.meta.Clip, name, err)
	}
	return nil
}

// PathWKT encodes samples as a LineString ZM with M = clip time. Fewer than
// two samples give an empty string. A path that never leaves one XY point is
// not a valid line string and returns an error.
func PathWKT(path []signals.TrajectorySample) (string, error) {
	if len(path) < 2 {
		return "", nil
	}
	coords := make([]float64, 0, len(path)*4)
	for _, p := range path {
		coords = append(coords, p.Translation.X, p.Translation.Y, p.Translation.Z, p.Time)
	}
	seq := geom.NewSequence(coords, geom.DimXYZM)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return "", fmt.Errorf("failed to build path line string: %w", err)
	}
	return ls.AsText(), nil
}
