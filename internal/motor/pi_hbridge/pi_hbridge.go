package pihbridge

import (
	"fmt"
	"log"

	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/motor"
	"github.com/stianeikeland/go-rpio/v4"
)

const MaxSupportedChannels = 2

// Driver runs up to two H-bridge channels straight off the pi header:
// hardware PWM for power, two GPIOs per channel for direction, plus the
// bridge standby gate.
type Driver struct {
	cfg      config.MotorConfig
	channels []channel
	standby  rpio.Pin
}

type channel struct {
	pwm rpio.Pin
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
		return fmt.Errorf("pi hbridge supports %d channels, configured for %d", MaxSupportedChannels, count)
	}

	d.standby = rpio.Pin(d.cfg.StandbyPin)
	d.standby.Output()
	d.standby.High()

	channels := make([]channel, 0, count)
	for i := 0; i < count; i++ {
		ch := channel{
			pwm: rpio.Pin(d.cfg.PWMPins[i]),
			in1: rpio.Pin(d.cfg.In1Pins[i]),
			in2: rpio.Pin(d.cfg.In2Pins[i]),
		}
		ch.in1.Output()
		ch.in2.Output()
		ch.in1.Low()
		ch.in2.Low()
		ch.pwm.Mode(rpio.Pwm)
		ch.pwm.Freq(d.cfg.PWMClockHz)
		ch.pwm.DutyCycle(0, d.cycleLength())
		channels = append(channels, ch)
		log.Printf("motor channel %d added on pwm pin %d\n", i, d.cfg.PWMPins[i])
	}
	d.channels = channels
	return nil
}

func (d *Driver) Stop() error {
	for i := range d.channels {
		d.channels[i].in1.Low()
		d.channels[i].in2.Low()
		d.channels[i].pwm.DutyCycle(0, d.cycleLength())
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

	d.channels[ch].pwm.DutyCycle(motor.DutyForPct(pct, d.cfg.PWMResolutionBits), d.cycleLength())
	return nil
}

func (d *Driver) cycleLength() uint32 {
	return motor.DutyMax(d.cfg.PWMResolutionBits) + 1
}

func setLevel(pin rpio.Pin, high bool) {
	if high {
		pin.High()
	} else {
		pin.Low()
	}
}
