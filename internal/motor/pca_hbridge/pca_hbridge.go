package pcahbridge

import (
	"fmt"
	"log"

	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/motor"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	MaxSupportedChannels = 4

	// The PCA9685 steps 12-bit regardless of what the pi PWM runs at.
	ResolutionBits = 12
)

// Driver generates PWM on a PCA9685 over i2c, one channel per wheel,
// with direction pins still on plain GPIO. Used by the 4-wheel builds
// where the pi only has two hardware PWM channels of its own.
type Driver struct {
	cfg      config.MotorConfig
	driver   *pca9685.PCA9685
	standby  rpio.Pin
	channels []dirPins
}

type dirPins struct {
	in1 rpio.Pin
	in2 rpio.Pin
}

func NewDriver(cfg config.MotorConfig) *Driver {
	return &Driver{
		cfg: cfg,
	}
}

func (d *Driver) Init() error {
	err := rpio.Open()
	if err != nil {
		return fmt.Errorf("failed opening rpio: %w", err)
	}

	count := d.cfg.Wheels
	if count > MaxSupportedChannels {
		return fmt.Errorf("pca hbridge supports %d channels, configured for %d", MaxSupportedChannels, count)
	}

	i2c, err := i2c.New(d.cfg.I2CAddress, d.cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("error starting i2c with address - %w", err)
	}

	d.driver, err = pca9685.New(i2c, nil)
	if err != nil {
		return fmt.Errorf("error getting pwm driver - %w", err)
	}

	d.standby = rpio.Pin(d.cfg.StandbyPin)
	d.standby.Output()
	d.standby.High()

	channels := make([]dirPins, 0, count)
	for i := 0; i < count; i++ {
		pins := dirPins{
			in1: rpio.Pin(d.cfg.In1Pins[i]),
			in2: rpio.Pin(d.cfg.In2Pins[i]),
		}
		pins.in1.Output()
		pins.in2.Output()
		pins.in1.Low()
		pins.in2.Low()

		err = d.driver.SetChannel(i, 0, 0)
		if err != nil {
			return fmt.Errorf("failed zeroing pwm channel %d - %w", i, err)
		}
		channels = append(channels, pins)
		log.Printf("motor channel %d added on pca9685 channel %d\n", i, i)
	}
	d.channels = channels
	return nil
}

func (d *Driver) Stop() error {
	for i := range d.channels {
		d.channels[i].in1.Low()
		d.channels[i].in2.Low()
		err := d.driver.SetChannel(i, 0, 0)
		if err != nil {
			return fmt.Errorf("failed zeroing pwm channel %d - %w", i, err)
		}
	}
	d.standby.Low()

	err := rpio.Close()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}

func (d *Driver) SetPower(ch int, pct int) error {
	if ch < 0 || ch >= len(d.channels) {
		return fmt.Errorf("no such motor channel: %d", ch)
	}
	pct = motor.ClampPct(pct)

	in1, in2 := motor.Direction(pct)
	setLevel(d.channels[ch].in1, in1)
	setLevel(d.channels[ch].in2, in2)

	err := d.driver.SetChannel(ch, 0, int(motor.DutyForPct(pct, ResolutionBits)))
	if err != nil {
		return fmt.Errorf("failed setting pwm channel %d - %w", ch, err)
	}
	return nil
}

func setLevel(pin rpio.Pin, high bool) {
	if high {
		pin.High()
	} else {
		pin.Low()
	}
}
