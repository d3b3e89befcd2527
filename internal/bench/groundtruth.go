package bench

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrBadGroundTruth = errors.New("malformed ground truth file")

// GroundTruth maps a dataset name to its exact number of distinct k-mers.
type GroundTruth map[string]uint64

// LoadGroundTruth reads a JSON document of the form
//
//	{"datasets": [{"name": "ecoli", "distinct_kmers": 4567890}, ...]}
func LoadGroundTruth(path string) (GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read ground truth %s", path)
	}
	return ParseGroundTruth(data)
}

func ParseGroundTruth(data []byte) (GroundTruth, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrBadGroundTruth, "invalid JSON")
	}

	datasets := gjson.GetBytes(data, "datasets")
	if !datasets.IsArray() {
		return nil, errors.Wrap(ErrBadGroundTruth, "missing datasets array")
	}

	truth := make(GroundTruth)
	var parseErr error
	datasets.ForEach(func(_, entry gjson.Result) bool {
		name := entry.Get("name")
		count := entry.Get("distinct_kmers")
		if name.Type != gjson.String || count.Type != gjson.Number {
			parseErr = errors.Wrapf(ErrBadGroundTruth, "bad entry %s", entry.Raw)
			return false
		}
		truth[name.String()] = count.Uint()
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return truth, nil
}

// Lookup finds the entry for a sequence file, matching on the file name with
// and without its extension.
func (g GroundTruth) Lookup(path string) (uint64, bool) {
	base := filepath.Base(path)
	if n, ok := g[base]; ok {
		return n, true
	}
	n, ok := g[strings.TrimSuffix(base, filepath.Ext(base))]
	return n, ok
}
