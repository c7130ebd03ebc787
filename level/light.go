package level

import "fmt"

// Shared light arrays. They are never written to: a LightSection replaces
// them with a private copy on its first differing write.
var (
	NoLight  = NewNibbleArray(0)
	AllLight = NewNibbleArray(15)
)

// Block light and sky light of one section
type LightSection struct {
	blockLight *NibbleArray
	skyLight   *NibbleArray
}

// A section without block light and with full sky light
func NewLightSection() *LightSection {
	return &LightSection{
		blockLight: NoLight,
		skyLight:   AllLight,
	}
}

func NewLightSectionFrom(blockLight, skyLight *NibbleArray) *LightSection {
	if blockLight == nil {
		blockLight = NoLight
	}
	if skyLight == nil {
		skyLight = AllLight
	}
	return &LightSection{blockLight: blockLight, skyLight: skyLight}
}

func (l *LightSection) BlockLight() *NibbleArray {
	return l.blockLight
}

func (l *LightSection) SkyLight() *NibbleArray {
	return l.skyLight
}

func (l *LightSection) BlockLightAt(x, y, z int) byte {
	checkCoords(x, y, z)
	return l.blockLight.Get(SectionIndex(x, y, z))
}

func (l *LightSection) SkyLightAt(x, y, z int) byte {
	checkCoords(x, y, z)
	return l.skyLight.Get(SectionIndex(x, y, z))
}

func checkLight(value byte) {
	if value > 15 {
		panic(fmt.Sprintf("light level %d must be between 0 and 15", value))
	}
}

func (l *LightSection) SetBlockLight(x, y, z int, value byte) {
	checkCoords(x, y, z)
	checkLight(value)

	if l.blockLight == NoLight {
		if value == 0 {
			return
		}
		l.blockLight = NoLight.Copy()
	}
	l.blockLight.Set(SectionIndex(x, y, z), value)
}

func (l *LightSection) SetSkyLight(x, y, z int, value byte) {
	checkCoords(x, y, z)
	checkLight(value)

	if l.skyLight == AllLight {
		if value == 15 {
			return
		}
		l.skyLight = AllLight.Copy()
	}
	l.skyLight.Set(SectionIndex(x, y, z), value)
}

// Deep copy. Shared arrays stay shared.
func (l *LightSection) Copy() *LightSection {
	out := &LightSection{blockLight: l.blockLight, skyLight: l.skyLight}
	if out.blockLight != NoLight {
		out.blockLight = out.blockLight.Copy()
	}
	if out.skyLight != AllLight {
		out.skyLight = out.skyLight.Copy()
	}
	return out
}
