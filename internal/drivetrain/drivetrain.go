package drivetrain

import (
	"fmt"
	"sync/atomic"

	"github.com/mzahmi/gorover/internal/motor"
)

// Topology maps the logical left/right roles onto physical wheel
// indices. Fixed at boot; the dispatcher and telemetry never branch on
// wheel count themselves.
type Topology struct {
	Wheels int
	Left   []int
	Right  []int
}

// TopologyFor builds the standard layout: 2-wheel left={0} right={1},
// 4-wheel left={0,2} right={1,3}.
func TopologyFor(wheels int) (Topology, error) {
	switch wheels {
	case 2:
		return Topology{Wheels: 2, Left: []int{0}, Right: []int{1}}, nil
	case 4:
		return Topology{Wheels: 4, Left: []int{0, 2}, Right: []int{1, 3}}, nil
	default:
		return Topology{}, fmt.Errorf("unsupported wheel count: %d", wheels)
	}
}

// Drivetrain applies commanded power to the motor set and remembers the
// last value per wheel. Power writes happen only from the dispatcher
// goroutine; telemetry reads the atomics.
type Drivetrain struct {
	topo   Topology
	driver motor.Driver
	power  []atomic.Int32
}

func New(topo Topology, driver motor.Driver) *Drivetrain {
	return &Drivetrain{
		topo:   topo,
		driver: driver,
		power:  make([]atomic.Int32, topo.Wheels),
	}
}

func (d *Drivetrain) Topology() Topology {
	return d.topo
}

// SetWheel clamps and applies power to one wheel.
func (d *Drivetrain) SetWheel(wheel int, pct int) error {
	if wheel < 0 || wheel >= d.topo.Wheels {
		return fmt.Errorf("no such wheel: %d", wheel)
	}
	pct = motor.ClampPct(pct)

	err := d.driver.SetPower(wheel, pct)
	if err != nil {
		return fmt.Errorf("failed setting wheel %d power: %w", wheel, err)
	}
	d.power[wheel].Store(int32(pct))
	return nil
}

// SetPerWheel applies one percentage per wheel. Extra values beyond the
// physical wheel count are ignored.
func (d *Drivetrain) SetPerWheel(pcts []int) error {
	for i := 0; i < d.topo.Wheels && i < len(pcts); i++ {
		err := d.SetWheel(i, pcts[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// SetPair drives every wheel in the left role at leftPct and every wheel
// in the right role at rightPct. Paired wheels on a side always get the
// identical value.
func (d *Drivetrain) SetPair(leftPct, rightPct int) error {
	for _, w := range d.topo.Left {
		err := d.SetWheel(w, leftPct)
		if err != nil {
			return err
		}
	}
	for _, w := range d.topo.Right {
		err := d.SetWheel(w, rightPct)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Drivetrain) StopAll() error {
	return d.SetPair(0, 0)
}

// Power returns the last commanded percentage for a wheel.
func (d *Drivetrain) Power(wheel int) int {
	return int(d.power[wheel].Load())
}
