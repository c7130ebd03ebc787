package level

import "strings"

const (
	BiomesPerSection = 64
	// Biome entries sent to 1.15 - 1.17.1 clients, the bottom 64 blocks of a column
	ColumnBiomes = 1024
)

type Biome struct {
	Name string
	ID   int32
}

var (
	Ocean     = Biome{"minecraft:ocean", 0}
	Plains    = Biome{"minecraft:plains", 1}
	Desert    = Biome{"minecraft:desert", 2}
	Mountains = Biome{"minecraft:mountains", 3}
	Forest    = Biome{"minecraft:forest", 4}
	Taiga     = Biome{"minecraft:taiga", 5}
	Swamp     = Biome{"minecraft:swamp", 6}
	River     = Biome{"minecraft:river", 7}
)

var knownBiomes = []Biome{Ocean, Plains, Desert, Mountains, Forest, Taiga, Swamp, River}

// Biomes are stored per 4x4x4 cell. x, y and z are block coordinates inside
// the chunk column, with y counted from the bottom section.
func BiomeIndex(x, y, z int) int {
	return (y>>2)<<4 | ((z>>2)&3)<<2 | (x>>2)&3
}

// Looks up a built-in biome. Unknown IDs yield an unnamed biome.
func BiomeByID(id int32) Biome {
	for _, b := range knownBiomes {
		if b.ID == id {
			return b
		}
	}
	return Biome{ID: id}
}

func BiomeByName(name string) (Biome, bool) {
	for _, b := range knownBiomes {
		if b.Name == name || strings.TrimPrefix(b.Name, "minecraft:") == name {
			return b, true
		}
	}
	return Biome{}, false
}
