package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
)

// Measurement is the InfluxDB measurement curve keys are written to.
const Measurement = "distance_curve"

// Writer is the subset of the blocking write API the sink needs.
type Writer interface {
	WritePoint(ctx context.Context, point ...*influxdb2_write.Point) error
}

// Client owns the InfluxDB connection.
type Client struct {
	client  influxdb2.Client
	writer  Writer
	logger  zerolog.Logger
	timeout time.Duration
}

func NewClient(cfg config.InfluxConfig, log zerolog.Logger) *Client {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Client{
		client:  client,
		writer:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger:  log.With().Str("component", "influx").Logger(),
		timeout: cfg.Timeout,
	}
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	running, err := c.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach InfluxDB: %w", err)
	}
	if !running {
		return fmt.Errorf("InfluxDB is not running")
	}
	return nil
}

func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) Sink(meta Meta) *Sink {
	return NewSink(c.writer, meta, c.logger, c.timeout)
}

// Meta tags every point written for one bake.
type Meta struct {
	BakeID  string
	Clip    string
	Bone    string
	Axis    string
	BakedAt time.Time
}

func MetaFromResult(r *pipeline.Result, bakedAt time.Time) Meta {
	return Meta{
		BakeID:  r.BakeID.String(),
		Clip:    r.Clip,
		Bone:    r.Settings.BoneName,
		Axis:    r.Settings.Axis.String(),
		BakedAt: bakedAt,
	}
}

// Sink buffers points during an edit and writes them when the outermost
// edit ends.
type Sink struct {
	writer  Writer
	meta    Meta
	logger  zerolog.Logger
	timeout time.Duration
	depth   int
	pending []*influxdb2_write.Point
}

func NewSink(w Writer, meta Meta, log zerolog.Logger, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sink{
		writer:  w,
		meta:    meta,
		logger:  log,
		timeout: timeout,
	}
}

func (s *Sink) BeginEdit(string) {
	if s.depth == 0 {
		s.pending = nil
	}
	s.depth++
}

// EnsureCurve always succeeds; a measurement needs no schema.
func (s *Sink) EnsureCurve(name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("curve name is empty")
	}
	return true, nil
}

func (s *Sink) ReplaceCurveKeys(name string, keys []signals.CurveKey) error {
	if s.depth == 0 {
		return fmt.Errorf("replace keys of %q outside of an edit", name)
	}
	s.pending = append(s.pending, BuildPoints(s.meta, name, keys)...)
	return nil
}

func (s *Sink) EndEdit() error {
	if s.depth == 0 {
		return fmt.Errorf("end edit without a matching begin")
	}
	s.depth--
	if s.depth > 0 || len(s.pending) == 0 {
		return nil
	}

	points := s.pending
	s.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("failed to write %d points for %s: %w", len(points), s.meta.Clip, err)
	}

	s.logger.Debug().Str("asset", s.meta.Clip).Int("points", len(points)).Msg("Wrote curve points")
	return nil
}

// BuildPoints turns keys into one point each, offset from the bake time by
// the key time.
func BuildPoints(meta Meta, curve string, keys []signals.CurveKey) []*influxdb2_write.Point {
	tags := map[string]string{
		"clip":    meta.Clip,
		"curve":   curve,
		"bone":    meta.Bone,
		"axis":    meta.Axis,
		"bake_id": meta.BakeID,
	}

	points := make([]*influxdb2_write.Point, 0, len(keys))
	for _, k := range keys {
		ts := meta.BakedAt.Add(time.Duration(k.Time * float64(time.Second)))
		points = append(points, influxdb2.NewPoint(
			Measurement,
			tags,
			map[string]interface{}{
				"value":  k.Value,
				"time_s": k.Time,
			},
			ts,
		))
	}
	return points
}
