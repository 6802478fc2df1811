package mapping

import "sync"

const (
	NumShakes     = 40
	NumElectrical = 2
	NumDots       = NumShakes + NumElectrical
)

// dotNames lists every dot by compact index: shake dots first, then electrical.
var dotNames = [NumDots]string{
	"TrueGearA1", "TrueGearA2", "TrueGearA3", "TrueGearA4", "TrueGearA5",
	"TrueGearB1", "TrueGearB2", "TrueGearB3", "TrueGearB4", "TrueGearB5",
	"TrueGearC1", "TrueGearC2", "TrueGearC3", "TrueGearC4", "TrueGearC5",
	"TrueGearD1", "TrueGearD2", "TrueGearD3", "TrueGearD4", "TrueGearD5",
	"TrueGearE1", "TrueGearE2", "TrueGearE3", "TrueGearE4", "TrueGearE5",
	"TrueGearF1", "TrueGearF2", "TrueGearF3", "TrueGearF4", "TrueGearF5",
	"TrueGearG1", "TrueGearG2", "TrueGearG3", "TrueGearG4", "TrueGearG5",
	"TrueGearH1", "TrueGearH2", "TrueGearH3", "TrueGearH4", "TrueGearH5",

	"TrueGearArmL", "TrueGearArmR",
}

// dotIDs are the ids the TrueGear service uses for the dot at the same compact index.
// Shake and electrical ids live in separate id spaces.
var dotIDs = [NumDots]int{
	1, 5, 9, 13, 17,
	0, 4, 8, 12, 16,
	100, 104, 108, 112, 116,
	101, 105, 109, 113, 117,
	102, 106, 110, 114, 118,
	103, 107, 111, 115, 119,
	3, 7, 11, 15, 19,
	2, 6, 10, 14, 18,

	0, 100,
}

var (
	dotIndexOnce sync.Once
	dotIndex     map[string]int
)

func dotIndexMap() map[string]int {
	dotIndexOnce.Do(func() {
		dotIndex = make(map[string]int, NumDots)
		for i, name := range dotNames {
			if _, ok := dotIndex[name]; !ok {
				dotIndex[name] = i
			}
		}
	})
	return dotIndex
}

// Resolve returns the compact index of the named dot.
func Resolve(name string) (int, bool) {
	i, ok := dotIndexMap()[name]
	return i, ok
}

// DeviceID returns the TrueGear id of the dot at compact index i.
func DeviceID(i int) int {
	return dotIDs[i]
}

// DotName returns the channel name of the dot at compact index i.
func DotName(i int) string {
	return dotNames[i]
}

// IsShake reports whether compact index i belongs to the shake sub-range.
func IsShake(i int) bool {
	return i < NumShakes
}
