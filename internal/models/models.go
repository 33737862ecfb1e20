package models

import (
	"github.com/google/uuid"
)

// Inbound command types on the control port.
const (
	TypeMotor2    = "motor2"
	TypeMotor4    = "motor4"
	TypeMotorPair = "motor"
	TypeMoveTicks = "move_ticks"
)

// Outbound message types on the telemetry port / ack path.
const (
	TypeAck      = "ack"
	TypeEncoders = "encoders"
	TypeAlive    = "alive"
)

// Command is the envelope every control datagram decodes into. Missing
// numeric fields keep their zero value except the move speeds, which
// default to the configured cruise speed when absent.
type Command struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	M1 int `json:"m1"`
	M2 int `json:"m2"`
	M3 int `json:"m3"`
	M4 int `json:"m4"`

	Left  int `json:"left"`
	Right int `json:"right"`

	LeftTicks  int32 `json:"left_ticks"`
	RightTicks int32 `json:"right_ticks"`
	LeftSpeed  *int  `json:"left_speed"`
	RightSpeed *int  `json:"right_speed"`
}

// Speeds returns the move speeds with the default applied for absent fields.
func (c *Command) Speeds(defaultSpeed int) (int, int) {
	left, right := defaultSpeed, defaultSpeed
	if c.LeftSpeed != nil {
		left = *c.LeftSpeed
	}
	if c.RightSpeed != nil {
		right = *c.RightSpeed
	}
	return left, right
}

type Ack struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	Ts   int64  `json:"ts"`
}

// EncoderCounts always carries four wheels; on 2-wheel hardware m3/m4
// mirror m1/m2 so controllers see one schema everywhere.
type EncoderCounts struct {
	M1 int64 `json:"m1"`
	M2 int64 `json:"m2"`
	M3 int64 `json:"m3"`
	M4 int64 `json:"m4"`
}

type EncoderTelemetry struct {
	Type   string        `json:"type"`
	Ts     int64         `json:"ts"`
	Counts EncoderCounts `json:"counts"`
}

type NetStats struct {
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxPackets uint64 `json:"tx_packets"`
}

type Geometry struct {
	WheelDiameterMM   float64 `json:"wheel_diameter_mm"`
	CountsPerRotation int     `json:"counts_per_rotation"`
	DistancePerPulse  float64 `json:"distance_per_pulse_mm"`
}

type Alive struct {
	Type    string    `json:"type"`
	Device  string    `json:"device"`
	IP      string    `json:"ip"`
	Ts      int64     `json:"ts"`
	Session uuid.UUID `json:"session"`

	Mode string `json:"mode,omitempty"`
	SSID string `json:"ssid,omitempty"`

	Net      *NetStats `json:"net,omitempty"`
	Geometry *Geometry `json:"geometry,omitempty"`
}
