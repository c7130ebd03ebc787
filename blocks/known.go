package blocks

var (
	solid = Properties{Solid: true, MotionBlocking: true}
	fluid = Properties{MotionBlocking: true}
)

var (
	Air         = New("minecraft:air", 0, 0, 0, Properties{Air: true})
	Stone       = New("minecraft:stone", 1, 0, 1, solid)
	Granite     = New("minecraft:granite", 1, 1, 2, solid)
	Diorite     = New("minecraft:diorite", 1, 3, 4, solid)
	Andesite    = New("minecraft:andesite", 1, 5, 6, solid)
	GrassBlock  = New("minecraft:grass_block", 2, 0, 9, solid)
	Dirt        = New("minecraft:dirt", 3, 0, 10, solid)
	Cobblestone = New("minecraft:cobblestone", 4, 0, 14, solid)
	OakPlanks   = New("minecraft:oak_planks", 5, 0, 15, solid)
	Bedrock     = New("minecraft:bedrock", 7, 0, 33, solid)
	Water       = New("minecraft:water", 9, 0, 34, fluid)
	Sand        = New("minecraft:sand", 12, 0, 66, solid)
	Gravel      = New("minecraft:gravel", 13, 0, 68, solid)
	Dandelion   = New("minecraft:dandelion", 37, 0, 1411, Properties{})
	Glass       = New("minecraft:glass", 20, 0, 230, solid)
)

var known = []Block{
	Air, Stone, Granite, Diorite, Andesite, GrassBlock, Dirt, Cobblestone,
	OakPlanks, Bedrock, Water, Sand, Gravel, Dandelion, Glass,
}

// Looks up one of the built-in blocks by its namespaced name. The namespace
// may be omitted.
func ByName(name string) (Block, bool) {
	for _, b := range known {
		simple := b.(Simple)
		if simple.name == name || simple.name == "minecraft:"+name {
			return b, true
		}
	}
	return nil, false
}
