package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/strrl/distcurve/internal/parser"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
)

type Generator struct {
	outputDir string
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
	}
}

// CurveFile is the JSON document written for every baked curve.
type CurveFile struct {
	BakeID        string             `json:"bakeId"`
	Clip          string             `json:"clip"`
	Curve         string             `json:"curve"`
	Bone          string             `json:"bone"`
	Axis          string             `json:"axis"`
	SampleRate    int                `json:"sampleRate"`
	ReferenceTime float64            `json:"referenceTime"`
	StopAtEnd     bool               `json:"stopAtEnd"`
	Keys          []signals.CurveKey `json:"keys"`
}

func (g *Generator) WriteCurve(result *pipeline.Result) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := CurveFile{
		BakeID:        result.BakeID.String(),
		Clip:          result.Clip,
		Curve:         result.Settings.CurveName,
		Bone:          result.Settings.BoneName,
		Axis:          result.Settings.Axis.String(),
		SampleRate:    result.Settings.SampleRate,
		ReferenceTime: result.ReferenceTime,
		StopAtEnd:     result.Settings.StopAtEnd,
		Keys:          result.Keys,
	}
	if doc.Keys == nil {
		doc.Keys = []signals.CurveKey{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode curve: %w", err)
	}

	filename := filepath.Join(g.outputDir, fmt.Sprintf("%s.%s.curve.json",
		sanitizeFilename(result.Clip), sanitizeFilename(result.Settings.CurveName)))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write curve file: %w", err)
	}

	return filename, nil
}

// WriteBack stores keys as curveName in the clip manifest at path, replacing
// an existing curve of the same name. Empty keys leave the manifest untouched.
func WriteBack(path, curveName string, keys []signals.CurveKey) error {
	if len(keys) == 0 {
		return nil
	}

	m, err := parser.ReadManifest(path)
	if err != nil {
		return err
	}

	replaced := false
	for i := range m.Curves {
		if strings.EqualFold(m.Curves[i].Name, curveName) {
			m.Curves[i].Keys = keys
			replaced = true
			break
		}
	}
	if !replaced {
		m.Curves = append(m.Curves, parser.CurveJSON{Name: curveName, Keys: keys})
	}

	return writeManifest(path, m)
}

// RemoveFromManifest drops curveName from the manifest. It reports whether
// the curve was present.
func RemoveFromManifest(path, curveName string) (bool, error) {
	m, err := parser.ReadManifest(path)
	if err != nil {
		return false, err
	}

	curves := m.Curves[:0]
	for _, c := range m.Curves {
		if !strings.EqualFold(c.Name, curveName) {
			curves = append(curves, c)
		}
	}
	if len(curves) == len(m.Curves) {
		return false, nil
	}
	m.Curves = curves

	return true, writeManifest(path, m)
}

func writeManifest(path string, m *parser.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode clip manifest: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat clip manifest: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write clip manifest: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(s string) string {
	result := unsafeChars.ReplaceAllString(s, "-")
	result = strings.Trim(result, "-")
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "unnamed"
	}
	return strings.ToLower(result)
}
