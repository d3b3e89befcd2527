package pipeline

import (
	"io"

	"github.com/genc-murat/kmersketch/internal/core/ports"
)

// Partition splits records into n contiguous, disjoint chunks of roughly
// equal sequence length. A chunk keeps taking records until it reaches its
// share of the total bytes. Records are never split, so some chunks may be
// empty when records are few or uneven. Concatenating the chunks yields
// records.
func Partition(records []ports.Record, n int) [][]ports.Record {
	if n <= 0 {
		n = 1
	}

	total := 0
	for _, r := range records {
		total += len(r.Seq)
	}

	chunks := make([][]ports.Record, 0, n)
	start, acc := 0, 0
	for i := 0; i < n-1; i++ {
		boundary := total * (i + 1) / n
		end := start
		for end < len(records) && acc < boundary {
			acc += len(records[end].Seq)
			end++
		}
		chunks = append(chunks, records[start:end])
		start = end
	}
	return append(chunks, records[start:])
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []ports.Record
	next    int
}

func NewSliceSource(records []ports.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (ports.Record, error) {
	if s.next >= len(s.records) {
		return ports.Record{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

func (s *SliceSource) Close() error {
	return nil
}
