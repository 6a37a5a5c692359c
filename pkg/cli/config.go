package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/ember/internal/config"
	"github.com/funvibe/ember/pkg/shape"
)

// Manifest describes the data sources available to queries.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// Source declares one named data source.
type Source struct {
	// Name is the identifier queries reference the source by.
	Name string `yaml:"name"`
	// Kind selects the backend: "csv" or "sqlite".
	Kind string `yaml:"kind"`
	// Path is the CSV or database file, relative to the manifest.
	Path string `yaml:"path"`
	// Table is the table name for sqlite sources. Defaults to Name.
	Table string `yaml:"table"`
	// Header reports whether a CSV file starts with a header row.
	Header bool `yaml:"header"`
	// Fields declare the row layout, in column order.
	Fields []FieldSpec `yaml:"fields"`
}

type FieldSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("manifest %s declares no sources", path)
	}
	seen := make(map[string]bool)
	for i := range m.Sources {
		src := &m.Sources[i]
		if src.Name == "" {
			return nil, fmt.Errorf("manifest %s: source %d has no name", path, i)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("manifest %s: duplicate source %q", path, src.Name)
		}
		seen[src.Name] = true
		if _, err := src.RowShape(); err != nil {
			return nil, fmt.Errorf("manifest %s: source %q: %w", path, src.Name, err)
		}
	}
	return &m, nil
}

// FindManifest probes dir for a manifest file with a recognized name.
func FindManifest(dir string) (string, error) {
	for _, name := range config.ManifestFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s (looked for %v)", dir, config.ManifestFileNames)
}

// RowShape builds the sequence-of-records shape declared by the source
// fields.
func (s *Source) RowShape() (shape.Shape, error) {
	if len(s.Fields) == 0 {
		return shape.Shape{}, fmt.Errorf("no fields declared")
	}
	fields := make([]shape.Field, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return shape.Shape{}, fmt.Errorf("field %d has no name", i)
		}
		fs, err := fieldShape(f.Type)
		if err != nil {
			return shape.Shape{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields[i] = shape.Field{Name: f.Name, Shape: fs}
	}
	return shape.Seq(shape.Record(fields...)), nil
}

func fieldShape(typeName string) (shape.Shape, error) {
	switch typeName {
	case config.TypeNameInt:
		return shape.Int(), nil
	case config.TypeNameFloat:
		return shape.Float(), nil
	case config.TypeNameString:
		return shape.String(), nil
	case config.TypeNameBool:
		return shape.Bool(), nil
	case config.TypeNameTime:
		return shape.Time(), nil
	}
	return shape.Shape{}, fmt.Errorf("unknown type %q", typeName)
}
