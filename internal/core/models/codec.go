package models

import (
	"bytes"
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Encoded sketches share one envelope:
//
//	magic "KMS" | version | kind | uvarint seed | uvarint params... | snappy(payload)
//
// The payload layout is owned by each sketch variant.
const codecVersion = 1

var codecMagic = []byte("KMS")

type envelope struct {
	kind    Kind
	seed    uint64
	params  []uint64
	payload []byte
}

func (e envelope) encode() []byte {
	buf := make([]byte, 0, len(codecMagic)+2+binary.MaxVarintLen64*(1+len(e.params))+snappy.MaxEncodedLen(len(e.payload)))
	buf = append(buf, codecMagic...)
	buf = append(buf, codecVersion, byte(e.kind))
	buf = binary.AppendUvarint(buf, e.seed)
	for _, p := range e.params {
		buf = binary.AppendUvarint(buf, p)
	}
	return append(buf, snappy.Encode(nil, e.payload)...)
}

// decodeEnvelope parses data written by envelope.encode for the given kind
// with exactly nparams configuration values.
func decodeEnvelope(data []byte, kind Kind, nparams int) (envelope, error) {
	if len(data) < len(codecMagic)+2 || !bytes.Equal(data[:len(codecMagic)], codecMagic) {
		return envelope{}, errors.Wrap(ErrCorruptSketch, "bad magic")
	}
	data = data[len(codecMagic):]
	if data[0] != codecVersion {
		return envelope{}, errors.Wrapf(ErrCorruptSketch, "unsupported version %d", data[0])
	}
	if Kind(data[1]) != kind {
		return envelope{}, errors.Wrapf(ErrCorruptSketch, "encoded %s, want %s", Kind(data[1]), kind)
	}
	data = data[2:]

	e := envelope{kind: kind, params: make([]uint64, nparams)}
	seed, n := binary.Uvarint(data)
	if n <= 0 {
		return envelope{}, errors.Wrap(ErrCorruptSketch, "bad seed")
	}
	e.seed = seed
	data = data[n:]

	for i := range nparams {
		v, n := binary.Uvarint(data)
		if n <= 0 {
			return envelope{}, errors.Wrapf(ErrCorruptSketch, "bad parameter %d", i)
		}
		e.params[i] = v
		data = data[n:]
	}

	payload, err := snappy.Decode(nil, data)
	if err != nil {
		return envelope{}, errors.Wrap(ErrCorruptSketch, err.Error())
	}
	e.payload = payload
	return e, nil
}

// PeekKind reports which sketch variant produced data without decoding it.
func PeekKind(data []byte) (Kind, error) {
	if len(data) < len(codecMagic)+2 || !bytes.Equal(data[:len(codecMagic)], codecMagic) {
		return 0, errors.Wrap(ErrCorruptSketch, "bad magic")
	}
	k := Kind(data[len(codecMagic)+1])
	if _, ok := kindNames[k]; !ok {
		return 0, errors.Wrapf(ErrUnknownKind, "%d", uint8(k))
	}
	return k, nil
}
