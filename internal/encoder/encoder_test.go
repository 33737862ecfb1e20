package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	counts []int64
}

func (f *fakeSource) Count(wheel int) int64 {
	return f.counts[wheel]
}

func TestZeroThenReadIsZero(t *testing.T) {
	source := &fakeSource{counts: []int64{1234, -77}}
	counter := NewCounter(source, 2)

	counter.ZeroAll()
	assert.Equal(t, int64(0), counter.Read(0))
	assert.Equal(t, int64(0), counter.Read(1))
}

func TestReadTracksSource(t *testing.T) {
	source := &fakeSource{counts: []int64{100, 200}}
	counter := NewCounter(source, 2)
	counter.ZeroAll()

	source.counts[0] = 130
	source.counts[1] = 150
	assert.Equal(t, int64(30), counter.Read(0))
	assert.Equal(t, int64(-50), counter.Read(1))

	// not cached: a second read sees further movement
	source.counts[0] = 131
	assert.Equal(t, int64(31), counter.Read(0))
}

func TestReadRoleTruncatedMean(t *testing.T) {
	source := &fakeSource{counts: []int64{0, 0, 0, 0}}
	counter := NewCounter(source, 4)
	counter.ZeroAll()

	source.counts[0] = 10
	source.counts[2] = 15
	assert.Equal(t, int64(12), counter.ReadRole([]int{0, 2}))

	source.counts[0] = -10
	source.counts[2] = -15
	assert.Equal(t, int64(-12), counter.ReadRole([]int{0, 2}))
}

func TestReadRoleSingleWheel(t *testing.T) {
	source := &fakeSource{counts: []int64{42, 0}}
	counter := NewCounter(source, 2)

	assert.Equal(t, int64(42), counter.ReadRole([]int{0}))
	assert.Equal(t, int64(0), counter.ReadRole(nil))
}
