package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPct(t *testing.T) {
	assert.Equal(t, 100, ClampPct(150))
	assert.Equal(t, -100, ClampPct(-150))
	assert.Equal(t, 100, ClampPct(100))
	assert.Equal(t, -100, ClampPct(-100))
	assert.Equal(t, 0, ClampPct(0))
	assert.Equal(t, 37, ClampPct(37))
	assert.Equal(t, -1, ClampPct(-1))
}

func TestDutyForPctBoundaries(t *testing.T) {
	assert.Equal(t, uint32(1023), DutyForPct(100, 10))
	assert.Equal(t, uint32(0), DutyForPct(0, 10))
	assert.Equal(t, uint32(4095), DutyForPct(100, 12))
	assert.Equal(t, uint32(4095), DutyForPct(-100, 12))
}

func TestDutyForPctSymmetric(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		assert.Equal(t, DutyForPct(pct, 10), DutyForPct(-pct, 10), "pct %d", pct)
	}
}

func TestDutyForPctMonotonic(t *testing.T) {
	prev := uint32(0)
	for pct := 0; pct <= 100; pct++ {
		duty := DutyForPct(pct, 10)
		assert.GreaterOrEqual(t, duty, prev)
		assert.LessOrEqual(t, duty, DutyMax(10))
		prev = duty
	}
}

func TestDutyForPctClampsLikeBoundary(t *testing.T) {
	assert.Equal(t, DutyForPct(100, 10), DutyForPct(150, 10))
	assert.Equal(t, DutyForPct(-100, 10), DutyForPct(-150, 10))
}

func TestDirection(t *testing.T) {
	in1, in2 := Direction(50)
	assert.True(t, in1)
	assert.False(t, in2)

	in1, in2 = Direction(-50)
	assert.False(t, in1)
	assert.True(t, in2)

	in1, in2 = Direction(0)
	assert.False(t, in1)
	assert.False(t, in2)

	// out of range behaves like the nearest boundary
	in1, in2 = Direction(900)
	assert.True(t, in1)
	assert.False(t, in2)
}
