package chunkwire

import (
	"fmt"
	"strings"

	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

type Dimension int8

const (
	Nether    Dimension = -1
	Overworld Dimension = 0
	End       Dimension = 1
)

// The overworld grew to 24 sections in 1.18
const overworldSections = 24

func ParseDimension(name string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "overworld":
		return Overworld, nil
	case "nether", "the_nether":
		return Nether, nil
	case "end", "the_end":
		return End, nil
	default:
		return Overworld, fmt.Errorf("unknown dimension %q", name)
	}
}

func (d Dimension) String() string {
	switch d {
	case Nether:
		return "nether"
	case End:
		return "end"
	default:
		return "overworld"
	}
}

// Only the overworld sends sky light
func (d Dimension) HasSkyLight() bool {
	return d == Overworld
}

// Sections a chunk in this dimension holds across all versions
func (d Dimension) Sections() int {
	if d == Overworld {
		return overworldSections
	}
	return level.LegacySections
}

// Sections sent to a client of the given version
func (d Dimension) MaxSections(v version.Version) int {
	if d == Overworld && v >= version.V1_18 {
		return overworldSections
	}
	return level.LegacySections
}
