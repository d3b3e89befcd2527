package fasta

import (
	"io"

	"github.com/genc-murat/kmersketch/internal/core/ports"
)

// MultiReader reads several files back to back, opening each one only when
// the previous one is exhausted.
type MultiReader struct {
	paths   []string
	current *Reader
}

func NewMultiReader(paths ...string) *MultiReader {
	return &MultiReader{paths: paths}
}

func (m *MultiReader) Next() (ports.Record, error) {
	for {
		if m.current == nil {
			if len(m.paths) == 0 {
				return ports.Record{}, io.EOF
			}
			r, err := Open(m.paths[0])
			if err != nil {
				return ports.Record{}, err
			}
			m.paths = m.paths[1:]
			m.current = r
		}

		rec, err := m.current.Next()
		if err != io.EOF {
			return rec, err
		}
		m.current.Close()
		m.current = nil
	}
}

func (m *MultiReader) Close() error {
	m.paths = nil
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}
