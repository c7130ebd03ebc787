package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/richgrov/chunkwire/version"
)

type Settings struct {
	// Versions whose section storages are built ahead of the first send
	PrepareMinVersion string `yaml:"prepare_min_version"`
	PrepareMaxVersion string `yaml:"prepare_max_version"`

	LoggingEnabled bool   `yaml:"logging_enabled"`
	LogLevel       string `yaml:"log_level"`

	// overworld, nether or end
	Dimension string      `yaml:"dimension"`
	Demo      DemoTerrain `yaml:"demo"`
}

// Terrain generated by chunkdump
type DemoTerrain struct {
	ChunkX int32   `yaml:"chunk_x"`
	ChunkZ int32   `yaml:"chunk_z"`
	Layers []Layer `yaml:"layers"`
	Biome  string  `yaml:"biome"`
}

// A run of identical blocks stacked from the bottom of the column
type Layer struct {
	Block  string `yaml:"block"`
	Height int    `yaml:"height"`
}

func Default() Settings {
	return Settings{
		PrepareMinVersion: "MINIMUM",
		PrepareMaxVersion: "LATEST",
		LoggingEnabled:    true,
		LogLevel:          "info",
		Dimension:         "overworld",
		Demo: DemoTerrain{
			Layers: []Layer{
				{Block: "bedrock", Height: 1},
				{Block: "stone", Height: 58},
				{Block: "dirt", Height: 3},
				{Block: "grass_block", Height: 1},
			},
			Biome: "plains",
		},
	}
}

// Reads settings from a YAML file. Keys missing from the file keep their
// defaults, and an empty path yields the defaults.
func Load(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	settings, err := Parse(b)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

func Parse(b []byte) (Settings, error) {
	settings := Default()
	if err := yaml.Unmarshal(b, &settings); err != nil {
		return Settings{}, err
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *Settings) Normalize() {
	s.Dimension = strings.ToLower(strings.TrimSpace(s.Dimension))
	if s.Dimension == "" {
		s.Dimension = "overworld"
	}
	if strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = "info"
	}
	if strings.TrimSpace(s.Demo.Biome) == "" {
		s.Demo.Biome = "plains"
	}
}

func (s *Settings) Validate() error {
	r, err := s.VersionRange()
	if err != nil {
		return err
	}
	if r.Min > r.Max {
		return fmt.Errorf("prepare_min_version %s is newer than prepare_max_version %s", r.Min, r.Max)
	}

	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch s.Dimension {
	case "overworld", "nether", "end":
	default:
		return fmt.Errorf("unknown dimension %q", s.Dimension)
	}

	total := 0
	for i, layer := range s.Demo.Layers {
		if layer.Height <= 0 {
			return fmt.Errorf("demo layer %d: height must be positive", i)
		}
		if strings.TrimSpace(layer.Block) == "" {
			return fmt.Errorf("demo layer %d: missing block", i)
		}
		total += layer.Height
	}
	if total > 256 {
		return fmt.Errorf("demo layers are %d blocks tall, at most 256 are allowed", total)
	}

	return nil
}

func (s *Settings) VersionRange() (version.Range, error) {
	oldest, err := version.Parse(s.PrepareMinVersion)
	if err != nil {
		return version.Range{}, fmt.Errorf("prepare_min_version: %w", err)
	}

	newest, err := version.Parse(s.PrepareMaxVersion)
	if err != nil {
		return version.Range{}, fmt.Errorf("prepare_max_version: %w", err)
	}

	return version.Range{Min: oldest, Max: newest}, nil
}

// Supported versions between the prepare bounds, ascending
func (s *Settings) Versions() ([]version.Version, error) {
	r, err := s.VersionRange()
	if err != nil {
		return nil, err
	}
	return r.Versions(), nil
}

// Logger configured from the logging settings. A disabled logger discards
// everything below panic level.
func (s *Settings) Logger() *logrus.Logger {
	logger := logrus.New()
	if !s.LoggingEnabled {
		logger.SetLevel(logrus.PanicLevel)
		return logger
	}

	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
