package hash

import (
	"sort"

	"github.com/pkg/errors"
)

// Hasher maps an input value to a 64-bit hash. Implementations must be pure:
// the same input always yields the same output for a given instance.
type Hasher interface {
	Sum64(data []byte) uint64
}

// Seeded is implemented by hashers whose output depends on a seed. Sketches
// built with different seeds cannot be merged.
type Seeded interface {
	Seed() uint64
}

// ErrUnknownHasher is returned by New for an unregistered name.
var ErrUnknownHasher = errors.New("unknown hasher")

var constructors = map[string]func(seed uint64) Hasher{
	"xxhash":  func(seed uint64) Hasher { return NewXXHash(seed) },
	"murmur3": func(seed uint64) Hasher { return NewMurmur3(seed) },
	"fnv":     func(seed uint64) Hasher { return NewFNV(seed) },
}

// New returns the hasher registered under name.
func New(name string, seed uint64) (Hasher, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHasher, "%q", name)
	}
	return ctor(seed), nil
}

// Names lists the registered hasher names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SeedOf returns the seed of h, or 0 if h is not seeded.
func SeedOf(h any) uint64 {
	if s, ok := h.(Seeded); ok {
		return s.Seed()
	}
	return 0
}
