package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexReleasesEntries(t *testing.T) {
	t.Parallel()
	var k keyedMutex

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Len(t, k.locks, 2)

	unlockA()
	unlockB()
	assert.Empty(t, k.locks)

	// relocking after release works
	k.Lock("a")()
	assert.Empty(t, k.locks)
}
