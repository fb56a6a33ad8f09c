// Package cachemap maps a cache-line address to a set index. Three modes
// are implemented for completeness; the Fermi-like XOR hash is the default,
// mimicking NVIDIA's Fermi architecture as described in the cache model
// this package is based on.
package cachemap

import "github.com/tue-es/gpu-cache-model/hwconfig"

// SetOf returns the set a cache-line address maps into, under the given
// hash mode and set count.
func SetOf(lineAddr uint64, mode hwconfig.HashMode, numSets uint32) uint32 {
	if numSets == 0 {
		panic("cachemap: numSets must be positive")
	}
	n := uint64(numSets)

	switch mode {
	case hwconfig.HashDirect:
		return uint32(lineAddr % n)

	case hwconfig.HashXOR:
		raw := (lineAddr % n) ^ ((lineAddr / n) % n)
		return uint32(raw % n)

	default: // hwconfig.HashFermi
		bit := func(pos uint) uint64 { return (lineAddr >> pos) & 1 }
		low := bit(0) + 2*bit(1) + 4*bit(2) + 8*bit(3) + 16*bit(4)
		high := bit(6) + 2*bit(7) + 4*bit(8) + 8*bit(10) + 16*bit(12)
		raw := (low ^ high) + 32*bit(5)
		return uint32(raw % n)
	}
}
