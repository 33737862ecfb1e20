package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

func GetConfig() Config {
	wheels := GetIntEnv("WHEELS", DefaultWheels)
	if wheels != 2 && wheels != 4 {
		log.Printf("warning: unsupported wheel count %d, using %d\n", wheels, DefaultWheels)
		wheels = DefaultWheels
	}

	cfg := Config{
		ServerCfg:   GetServerConfig(),
		MotorCfg:    GetMotorConfig(wheels),
		EncoderCfg:  GetEncoderConfig(wheels),
		DriveCfg:    GetDriveConfig(wheels),
		GeometryCfg: GetGeometryConfig(),
	}
	cfg.TelemetryCfg = GetTelemetryConfig(cfg.ServerCfg)

	log.Printf("app Config: \n%+v\n", cfg)
	return cfg
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		DeviceName:     GetStringEnv("DEVICENAME", DefaultDeviceName),
		ControlPort:    GetIntEnv("CTRLPORT", DefaultControlPort),
		TelemetryPort:  GetIntEnv("TELEMPORT", DefaultTelemetryPort),
		ControllerHost: GetStringEnv("CONTROLLERHOST", DefaultControllerHost),
		NetInterface:   GetStringEnv("NETINTERFACE", DefaultNetInterface),
		WifiMode:       GetStringEnv("WIFIMODE", DefaultWifiMode),
		APSSID:         GetStringEnv("APSSID", DefaultAPSSID),
	}
}

func GetMotorConfig(wheels int) MotorConfig {
	driver := DefaultDriver
	if wheels == 4 {
		driver = DriverPCABridge
	}

	motorCfg := MotorConfig{
		Driver:            GetStringEnv("MOTORDRIVER", driver),
		Wheels:            wheels,
		PWMPins:           make([]int, wheels),
		In1Pins:           make([]int, wheels),
		In2Pins:           make([]int, wheels),
		StandbyPin:        GetIntEnv("STBYPIN", DefaultStandbyPin),
		PWMResolutionBits: GetIntEnv("PWMRESBITS", DefaultPWMResolutionBits),
		PWMClockHz:        GetIntEnv("PWMCLOCKHZ", DefaultPWMClockHz),
		I2CDevice:         GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		I2CAddress:        byte(GetIntEnv("I2CADDRESS", DefaultI2CAddress)),
	}

	for i := 0; i < wheels; i++ {
		envPrefix := fmt.Sprintf("M%d_", i+1)
		motorCfg.PWMPins[i] = GetIntEnv(envPrefix+"PWMPIN", DefaultPWMPins[i])
		motorCfg.In1Pins[i] = GetIntEnv(envPrefix+"IN1PIN", DefaultIn1Pins[i])
		motorCfg.In2Pins[i] = GetIntEnv(envPrefix+"IN2PIN", DefaultIn2Pins[i])
	}
	return motorCfg
}

func GetEncoderConfig(wheels int) EncoderConfig {
	encoderCfg := EncoderConfig{
		Wheels: wheels,
		APins:  make([]int, wheels),
		BPins:  make([]int, wheels),
	}
	for i := 0; i < wheels; i++ {
		envPrefix := fmt.Sprintf("ENC%d_", i+1)
		encoderCfg.APins[i] = GetIntEnv(envPrefix+"APIN", DefaultEncA[i])
		encoderCfg.BPins[i] = GetIntEnv(envPrefix+"BPIN", DefaultEncB[i])
	}
	return encoderCfg
}

func GetDriveConfig(wheels int) DriveConfig {
	return DriveConfig{
		Wheels:           wheels,
		MoveTimeoutMs:    GetIntEnv("MOVETIMEOUTMS", DefaultMoveTimeout),
		MovePollMs:       GetIntEnv("MOVEPOLLMS", DefaultMovePollInterval),
		DefaultMoveSpeed: GetIntEnv("MOVESPEED", DefaultMoveSpeed),
	}
}

func GetTelemetryConfig(serverCfg ServerConfig) TelemetryConfig {
	return TelemetryConfig{
		DeviceName:      serverCfg.DeviceName,
		TelemetryPort:   serverCfg.TelemetryPort,
		ControllerHost:  serverCfg.ControllerHost,
		NetInterface:    serverCfg.NetInterface,
		WifiMode:        serverCfg.WifiMode,
		APSSID:          serverCfg.APSSID,
		EncoderInterval: GetIntEnv("ENCTELEMMS", DefaultEncoderTelemInterval),
		AliveInterval:   GetIntEnv("ALIVEMS", DefaultAliveInterval),
	}
}

func GetGeometryConfig() GeometryConfig {
	return GeometryConfig{
		WheelDiameterMM: GetFloatEnv("WHEELDIAMETERMM", DefaultWheelDiameterMM),
		EncoderPPR:      GetIntEnv("ENCODERPPR", DefaultEncoderPPR),
		GearRatio:       GetIntEnv("GEARRATIO", DefaultGearRatio),
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 10, 32)
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return int(value)
		}
	}
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return value
		}
	}
}

func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		return strings.ToLower(strings.Trim(envValue, "\r"))
	}
}

func GetFloatEnv(env string, defaultValue float64) float64 {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return defaultValue
		}
		return value
	}
}
