package motor

// Driver pushes a signed power percentage out to one H-bridge channel.
// Implementations clamp out-of-range percentages themselves, so callers
// that already clamped lose nothing by the second clamp.
type Driver interface {
	Init() error
	SetPower(channel int, pct int) error
	Stop() error
}

// ClampPct bounds a power percentage to [-100, 100].
func ClampPct(pct int) int {
	if pct < -100 {
		return -100
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DutyMax is the top duty value for a PWM resolution in bits.
func DutyMax(resolutionBits int) uint32 {
	return (1 << resolutionBits) - 1
}

// DutyForPct maps |pct| onto [0, DutyMax], rounded to nearest.
func DutyForPct(pct int, resolutionBits int) uint32 {
	pct = ClampPct(pct)
	if pct < 0 {
		pct = -pct
	}
	return (uint32(pct)*DutyMax(resolutionBits) + 50) / 100
}

// Direction gives the H-bridge input pin levels for a signed percentage:
// forward {high,low}, reverse {low,high}, zero {low,low} (coast).
func Direction(pct int) (in1 bool, in2 bool) {
	pct = ClampPct(pct)
	switch {
	case pct > 0:
		return true, false
	case pct < 0:
		return false, true
	default:
		return false, false
	}
}
