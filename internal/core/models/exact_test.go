package models

import (
	"testing"

	"github.com/genc-murat/kmersketch/pkg/utils/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactCounter(t *testing.T) {
	c := NewExactCounter(hash.NewXXHash(0))
	for _, kmer := range []string{"AAA", "AAC", "ACG", "TTT"} {
		c.Insert([]byte(kmer))
	}

	e, err := c.Estimate()
	require.NoError(t, err)
	assert.Equal(t, 4.0, e)

	c.Insert([]byte("AAA"))
	e, err = c.Estimate()
	require.NoError(t, err)
	assert.Equal(t, 4.0, e)
	assert.Equal(t, 4, c.Len())
}

func TestExactCounterMergeIsUnion(t *testing.T) {
	a := NewExactCounter(hash.NewMurmur3(5))
	b := NewExactCounter(hash.NewMurmur3(5))
	a.Insert([]byte("ACGT"))
	a.Insert([]byte("CCCC"))
	b.Insert([]byte("CCCC"))
	b.Insert([]byte("GGGG"))

	require.NoError(t, a.Merge(b))
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 2, b.Len())
}
