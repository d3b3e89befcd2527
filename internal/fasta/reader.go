// Package fasta decodes FASTA (and FASTQ, optionally gzipped) files into
// sequence records.
package fasta

import (
	"io"
	"sync"

	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/kmer"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

var disableValidation sync.Once

// Reader is a ports.RecordSource over one file.
type Reader struct {
	path   string
	reader *fastx.Reader
	done   bool
}

// Open opens path for reading. Compression is detected from the content.
func Open(path string) (*Reader, error) {
	// Alphabet checks are left to k-mer extraction.
	disableValidation.Do(func() { seq.ValidateSeq = false })

	r, err := fastx.NewDefaultReader(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return &Reader{path: path, reader: r}, nil
}

// Next returns the next record with its sequence upper-cased. The sequence is
// a private copy. It returns io.EOF after the last record.
func (r *Reader) Next() (ports.Record, error) {
	if r.done {
		return ports.Record{}, io.EOF
	}

	record, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			r.done = true
			return ports.Record{}, io.EOF
		}
		return ports.Record{}, errors.Wrap(err, r.path)
	}

	// The library reuses its record buffers between calls.
	sequence := make([]byte, len(record.Seq.Seq))
	copy(sequence, record.Seq.Seq)

	return ports.Record{
		ID:  string(record.ID),
		Seq: kmer.Upper(sequence),
	}, nil
}

func (r *Reader) Close() error {
	r.done = true
	r.reader.Close()
	return nil
}

// ReadAll decodes every record in path.
func ReadAll(path string) ([]ports.Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []ports.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
