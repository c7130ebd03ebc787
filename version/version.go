package version

import (
	"fmt"
	"strings"
)

// A Minecraft protocol version, identified by its protocol number. Protocol
// numbers grow with every release, so versions can be compared with the usual
// operators.
type Version int32

const (
	Unknown Version = -1
	V1_7_2  Version = 4
	V1_7_6  Version = 5
	V1_8    Version = 47
	V1_9    Version = 107
	V1_9_1  Version = 108
	V1_9_2  Version = 109
	V1_9_4  Version = 110
	V1_10   Version = 210
	V1_11   Version = 315
	V1_11_1 Version = 316
	V1_12   Version = 335
	V1_12_1 Version = 338
	V1_12_2 Version = 340
	V1_13   Version = 393
	V1_13_1 Version = 401
	V1_13_2 Version = 404
	V1_14   Version = 477
	V1_14_1 Version = 480
	V1_14_2 Version = 485
	V1_14_3 Version = 490
	V1_14_4 Version = 498
	V1_15   Version = 573
	V1_15_1 Version = 575
	V1_15_2 Version = 578
	V1_16   Version = 735
	V1_16_1 Version = 736
	V1_16_2 Version = 751
	V1_16_3 Version = 753
	V1_16_4 Version = 754
	V1_17   Version = 755
	V1_17_1 Version = 756
	V1_18   Version = 757
	V1_18_2 Version = 758
)

const (
	Minimum = V1_7_2
	Latest  = V1_18_2
)

var names = map[Version]string{
	V1_7_2:  "1.7.2",
	V1_7_6:  "1.7.6",
	V1_8:    "1.8",
	V1_9:    "1.9",
	V1_9_1:  "1.9.1",
	V1_9_2:  "1.9.2",
	V1_9_4:  "1.9.4",
	V1_10:   "1.10",
	V1_11:   "1.11",
	V1_11_1: "1.11.1",
	V1_12:   "1.12",
	V1_12_1: "1.12.1",
	V1_12_2: "1.12.2",
	V1_13:   "1.13",
	V1_13_1: "1.13.1",
	V1_13_2: "1.13.2",
	V1_14:   "1.14",
	V1_14_1: "1.14.1",
	V1_14_2: "1.14.2",
	V1_14_3: "1.14.3",
	V1_14_4: "1.14.4",
	V1_15:   "1.15",
	V1_15_1: "1.15.1",
	V1_15_2: "1.15.2",
	V1_16:   "1.16",
	V1_16_1: "1.16.1",
	V1_16_2: "1.16.2",
	V1_16_3: "1.16.3",
	V1_16_4: "1.16.4",
	V1_17:   "1.17",
	V1_17_1: "1.17.1",
	V1_18:   "1.18",
	V1_18_2: "1.18.2",
}

// Every supported version in ascending order
var all = []Version{
	V1_7_2, V1_7_6, V1_8, V1_9, V1_9_1, V1_9_2, V1_9_4, V1_10, V1_11, V1_11_1,
	V1_12, V1_12_1, V1_12_2, V1_13, V1_13_1, V1_13_2, V1_14, V1_14_1, V1_14_2,
	V1_14_3, V1_14_4, V1_15, V1_15_1, V1_15_2, V1_16, V1_16_1, V1_16_2,
	V1_16_3, V1_16_4, V1_17, V1_17_1, V1_18, V1_18_2,
}

func (v Version) String() string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("protocol(%d)", int32(v))
}

func (v Version) Supported() bool {
	_, ok := names[v]
	return ok
}

// Protocol number sent by the client during the handshake
func (v Version) Protocol() int32 {
	return int32(v)
}

// Returns a copy of all supported versions in ascending order
func All() []Version {
	out := make([]Version, len(all))
	copy(out, all)
	return out
}

// Parses a version name. Both "1.12.2" and "1_12_2" are accepted, as well as
// "LATEST" and an optional "MINECRAFT_" prefix.
func Parse(name string) (Version, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.TrimPrefix(normalized, "MINECRAFT_")
	if normalized == "LATEST" {
		return Latest, nil
	}
	if normalized == "MINIMUM" || normalized == "OLDEST" {
		return Minimum, nil
	}

	normalized = strings.ReplaceAll(normalized, "_", ".")
	for _, v := range all {
		if names[v] == normalized {
			return v, nil
		}
	}

	return Unknown, fmt.Errorf("unknown minecraft version %q", name)
}

// Inclusive range of versions
type Range struct {
	Min Version
	Max Version
}

func (r Range) Contains(v Version) bool {
	return v >= r.Min && v <= r.Max
}

// Supported versions inside the range in ascending order
func (r Range) Versions() []Version {
	out := make([]Version, 0, len(all))
	for _, v := range all {
		if r.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}
