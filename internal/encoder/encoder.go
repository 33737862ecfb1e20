package encoder

// TickSource is the hardware side of the counter: the raw, monotonically
// updated pulse count for one wheel. Implementations must make Count safe
// to call from any goroutine while the hardware context keeps counting.
type TickSource interface {
	Count(wheel int) int64
}

// Counter reads wheel positions relative to the zero offsets captured at
// startup. Reads always go back to the tick source so they reflect the
// latest hardware-observed edge.
type Counter struct {
	source TickSource
	zero   []int64
}

func NewCounter(source TickSource, wheels int) *Counter {
	return &Counter{
		source: source,
		zero:   make([]int64, wheels),
	}
}

func (c *Counter) Wheels() int {
	return len(c.zero)
}

// Zero captures the current raw count as the wheel's new offset. Called
// once per wheel at startup, before any reader goroutine is running.
func (c *Counter) Zero(wheel int) {
	c.zero[wheel] = c.source.Count(wheel)
}

func (c *Counter) ZeroAll() {
	for i := range c.zero {
		c.Zero(i)
	}
}

// Read returns the wheel position relative to its zero offset.
func (c *Counter) Read(wheel int) int64 {
	return c.source.Count(wheel) - c.zero[wheel]
}

// ReadRole returns the truncated mean position of a set of wheels. When
// the wheels in a role diverge the mean under-reports the faster one;
// known limitation of driving paired wheels with one target.
func (c *Counter) ReadRole(wheels []int) int64 {
	if len(wheels) == 0 {
		return 0
	}
	var sum int64
	for _, w := range wheels {
		sum += c.Read(w)
	}
	return sum / int64(len(wheels))
}
