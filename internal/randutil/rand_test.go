package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()

	a := New(42)
	b := New(42)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestDeriveSeparatesStreams(t *testing.T) {
	t.Parallel()

	seen := make(map[int64]bool)
	for n := uint64(0); n < 1000; n++ {
		s := Derive(7, n)
		assert.False(t, seen[s], "stream %d collided", n)
		seen[s] = true
	}
	assert.Equal(t, Derive(7, 3), Derive(7, 3))
	assert.NotEqual(t, Derive(7, 3), Derive(8, 3))
}

func TestSeedKeepsExplicitValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(99), Seed(99))
	assert.NotZero(t, Seed(0))
}
