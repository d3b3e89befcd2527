package models

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// Sketch errors
	ErrConfigMismatch     = errors.New("sketch configuration mismatch")
	ErrEstimateOutOfRange = errors.New("estimate out of range")
	ErrInvalidConfig      = errors.New("invalid sketch configuration")
	ErrCorruptSketch      = errors.New("corrupt sketch encoding")
	ErrNoSketches         = errors.New("no sketches to merge")
	ErrUnknownKind        = errors.New("unknown sketch kind")
)

// Kind identifies a sketch variant.
type Kind uint8

const (
	KindExact Kind = iota + 1
	KindLinear
	KindFlajoletMartin
	KindHyperLogLog
)

var kindNames = map[Kind]string{
	KindExact:          "exact",
	KindLinear:         "linear",
	KindFlajoletMartin: "fm",
	KindHyperLogLog:    "hll",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts the short names used in configuration files and flags.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "flajolet-martin", "flajoletmartin":
		return KindFlajoletMartin, nil
	case "hyperloglog":
		return KindHyperLogLog, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Sketch is the contract shared by every cardinality estimator. S is the
// concrete sketch type, so Merge and Compatible only accept sketches of the
// same variant.
//
// Merge must be associative, commutative and idempotent: any merge order over
// any partition of the input yields the same internal state.
type Sketch[S any] interface {
	Kind() Kind
	// Insert hashes item and records it.
	Insert(item []byte)
	// InsertHash records an already hashed item.
	InsertHash(h uint64)
	// Estimate returns the approximate number of distinct items inserted.
	Estimate() (float64, error)
	// Merge folds other into the receiver. It fails with ErrConfigMismatch
	// when the two sketches were built with different parameters.
	Merge(other S) error
	// Compatible reports whether Merge would accept other.
	Compatible(other S) bool
	Clone() S
	Reset()

	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// MergeAll reduces sketches pairwise, tree-style, and returns the result.
// The inputs are merged in place; the returned sketch is one of them.
func MergeAll[S Sketch[S]](sketches ...S) (S, error) {
	var zero S
	if len(sketches) == 0 {
		return zero, ErrNoSketches
	}

	level := sketches
	for len(level) > 1 {
		next := make([]S, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			if err := level[i].Merge(level[i+1]); err != nil {
				return zero, err
			}
			next = append(next, level[i])
		}
		level = next
	}
	return level[0], nil
}

func mismatch(kind Kind, format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfigMismatch, "%s: %s", kind, fmt.Sprintf(format, args...))
}
