package stationimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/busnow/api/models"
)

// DefaultBatchSize is how many rows are committed per transaction
const DefaultBatchSize = 1000

const (
	EncodingEUCKR = "euc-kr"
	EncodingUTF8  = "utf-8"
)

// Manifest lists the CSV files to import, in order. Earlier sources win when
// the same ars_id appears more than once.
type Manifest struct {
	BatchSize int      `yaml:"batch_size" validate:"omitempty,min=1"`
	Sources   []Source `yaml:"sources" validate:"required,min=1,dive"`
}

// Source is one CSV file and the columns that hold each station field
type Source struct {
	Name     string  `yaml:"name" validate:"required"`
	Path     string  `yaml:"path" validate:"required"`
	Location string  `yaml:"location" validate:"required,oneof=SEL KYG"`
	Encoding string  `yaml:"encoding" validate:"omitempty,oneof=euc-kr utf-8"`
	Columns  Columns `yaml:"columns"`
}

// Columns maps CSV header names to station fields
type Columns struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Longitude string `yaml:"longitude"`
	Latitude  string `yaml:"latitude"`
}

// DefaultColumns returns the header names used by each authority's published station list
func DefaultColumns(tag models.SourceTag) Columns {
	if tag == models.SourceGyeonggi {
		return Columns{ID: "정류소id", Name: "정류소명", Longitude: "WGS84경도", Latitude: "WGS84위도"}
	}
	return Columns{ID: "arsId", Name: "stNm", Longitude: "tmX", Latitude: "tmY"}
}

// DefaultManifest imports seoul_bus_station.csv then kyg_bus_station.csv from dir
func DefaultManifest(dir string) *Manifest {
	m := &Manifest{
		Sources: []Source{
			{Name: "seoul", Path: filepath.Join(dir, "seoul_bus_station.csv"), Location: string(models.SourceSeoul)},
			{Name: "gyeonggi", Path: filepath.Join(dir, "kyg_bus_station.csv"), Location: string(models.SourceGyeonggi)},
		},
	}
	m.applyDefaults()
	return m
}

// LoadManifest reads and validates a YAML manifest. Relative source paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range m.Sources {
		if !filepath.IsAbs(m.Sources[i].Path) {
			m.Sources[i].Path = filepath.Join(base, m.Sources[i].Path)
		}
	}
	return m, nil
}

// ParseManifest decodes and validates manifest YAML
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i := range m.Sources {
		m.Sources[i].Location = strings.ToUpper(strings.TrimSpace(m.Sources[i].Location))
		m.Sources[i].Encoding = strings.ToLower(strings.TrimSpace(m.Sources[i].Encoding))
	}
	if err := validator.New().Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.BatchSize == 0 {
		m.BatchSize = DefaultBatchSize
	}
	for i := range m.Sources {
		src := &m.Sources[i]
		if src.Encoding == "" {
			src.Encoding = EncodingEUCKR
		}
		def := DefaultColumns(models.SourceTag(src.Location))
		if src.Columns.ID == "" {
			src.Columns.ID = def.ID
		}
		if src.Columns.Name == "" {
			src.Columns.Name = def.Name
		}
		if src.Columns.Longitude == "" {
			src.Columns.Longitude = def.Longitude
		}
		if src.Columns.Latitude == "" {
			src.Columns.Latitude = def.Latitude
		}
	}
}
