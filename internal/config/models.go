package config

const (
	AppEnvBase = "GOROVER_"

	MaxSupportedWheels = 4

	DefaultWheels   = 2
	DefaultWifiMode = "sta"

	DefaultDeviceName     = "ESP32_Robot"
	DefaultControlPort    = 9000
	DefaultTelemetryPort  = 9001
	DefaultControllerHost = "msi.local"
	DefaultNetInterface   = "wlan0"
	DefaultAPSSID         = "gorover"

	// Telemetry cadence (ms)
	DefaultEncoderTelemInterval = 50
	DefaultAliveInterval        = 10000

	// move_ticks bounds (ms)
	DefaultMoveTimeout      = 10000
	DefaultMovePollInterval = 1
	DefaultMoveSpeed        = 50

	// Motor driver selection
	DriverPiBridge  = "pibridge"
	DriverPCABridge = "pcabridge"
	DefaultDriver   = DriverPiBridge

	DefaultI2CDevice  = "/dev/i2c-1"
	DefaultI2CAddress = 0x40

	// PWM shape for the pi hardware PWM channels
	DefaultPWMResolutionBits = 10
	DefaultPWMClockHz        = 4000000

	DefaultStandbyPin = 4

	// Wheel geometry
	DefaultWheelDiameterMM = 44.0
	DefaultEncoderPPR      = 3
	DefaultGearRatio       = 200
)

// Per-wheel pin defaults. PWM pins 12/13 are the pi's hardware PWM
// channels, the rest are plain GPIO.
var (
	DefaultPWMPins = []int{12, 13, 18, 19}
	DefaultIn1Pins = []int{5, 16, 20, 24}
	DefaultIn2Pins = []int{6, 26, 21, 25}
	DefaultEncA    = []int{17, 22, 9, 8}
	DefaultEncB    = []int{27, 23, 11, 7}
)

type Config struct {
	ServerCfg    ServerConfig
	MotorCfg     MotorConfig
	EncoderCfg   EncoderConfig
	DriveCfg     DriveConfig
	TelemetryCfg TelemetryConfig
	GeometryCfg  GeometryConfig
}

type ServerConfig struct {
	DeviceName     string
	ControlPort    int
	TelemetryPort  int
	ControllerHost string
	NetInterface   string
	WifiMode       string // "sta" or "ap"
	APSSID         string
}

type MotorConfig struct {
	Driver            string
	Wheels            int
	PWMPins           []int
	In1Pins           []int
	In2Pins           []int
	StandbyPin        int
	PWMResolutionBits int
	PWMClockHz        int
	I2CDevice         string
	I2CAddress        byte
}

type EncoderConfig struct {
	Wheels int
	APins  []int
	BPins  []int
}

type DriveConfig struct {
	Wheels           int
	MoveTimeoutMs    int
	MovePollMs       int
	DefaultMoveSpeed int
}

type TelemetryConfig struct {
	DeviceName      string
	TelemetryPort   int
	ControllerHost  string
	NetInterface    string
	WifiMode        string
	APSSID          string
	EncoderInterval int // ms
	AliveInterval   int // ms
}

type GeometryConfig struct {
	WheelDiameterMM float64
	EncoderPPR      int
	GearRatio       int
}

// CountsPerWheelRotation is encoder pulses for one full wheel turn.
func (g GeometryConfig) CountsPerWheelRotation() int {
	return g.EncoderPPR * g.GearRatio
}

// DistancePerPulseMM converts one encoder pulse to travel distance.
func (g GeometryConfig) DistancePerPulseMM() float64 {
	circumference := 3.1416 * g.WheelDiameterMM
	return circumference / float64(g.CountsPerWheelRotation())
}
