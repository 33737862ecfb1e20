package telemetry

import (
	"encoding/json"
	"fmt"
	"net"
	"testing"

	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/drivetrain"
	"github.com/mzahmi/gorover/internal/encoder"
	"github.com/mzahmi/gorover/internal/models"
	"github.com/mzahmi/gorover/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicks struct {
	counts []int64
}

func (f *fakeTicks) Count(wheel int) int64 { return f.counts[wheel] }

type fakeSender struct {
	sent []sentMsg
}

type sentMsg struct {
	to      *net.UDPAddr
	payload []byte
}

func (f *fakeSender) SendTo(addr *net.UDPAddr, payload []byte) error {
	f.sent = append(f.sent, sentMsg{to: addr, payload: payload})
	return nil
}

func testConfig(mode string) config.TelemetryConfig {
	return config.TelemetryConfig{
		DeviceName:      "ESP32_Robot",
		TelemetryPort:   9001,
		ControllerHost:  "controller.local",
		NetInterface:    "wlan0",
		WifiMode:        mode,
		APSSID:          "gorover",
		EncoderInterval: 50,
		AliveInterval:   10000,
	}
}

func testGeometry() config.GeometryConfig {
	return config.GeometryConfig{
		WheelDiameterMM: 44.0,
		EncoderPPR:      3,
		GearRatio:       200,
	}
}

func newTestScheduler(t *testing.T, wheels int, mode string) (*Scheduler, *fakeTicks, *fakeSender, *transport.PeerStore) {
	t.Helper()

	topo, err := drivetrain.TopologyFor(wheels)
	require.NoError(t, err)

	ticks := &fakeTicks{counts: make([]int64, wheels)}
	counter := encoder.NewCounter(ticks, wheels)
	counter.ZeroAll()

	peers := transport.NewPeerStore()
	sender := &fakeSender{}

	s := NewScheduler(testConfig(mode), testGeometry(), counter, topo, peers, sender, func() int64 { return 777 })
	s.broadcast = func() *net.UDPAddr {
		return &net.UDPAddr{IP: net.IPv4(192, 168, 4, 255), Port: 9001}
	}
	s.resolve = func(host string) (*net.UDPAddr, error) {
		return &net.UDPAddr{IP: net.IPv4(192, 168, 4, 10), Port: 9001}, nil
	}
	s.localIP = func() string { return "192.168.4.1" }
	s.netStats = func() *models.NetStats { return nil }

	return s, ticks, sender, peers
}

func decodeEncoders(t *testing.T, payload []byte) models.EncoderTelemetry {
	t.Helper()
	telem := models.EncoderTelemetry{}
	require.NoError(t, json.Unmarshal(payload, &telem))
	return telem
}

func TestEncoderSnapshotDuplicatesOnTwoWheels(t *testing.T) {
	s, ticks, sender, _ := newTestScheduler(t, 2, "ap")

	ticks.counts[0] = 5
	ticks.counts[1] = -3
	s.sendEncoders()

	require.NotEmpty(t, sender.sent)
	telem := decodeEncoders(t, sender.sent[0].payload)
	assert.Equal(t, models.TypeEncoders, telem.Type)
	assert.Equal(t, int64(777), telem.Ts)
	assert.Equal(t, int64(5), telem.Counts.M1)
	assert.Equal(t, int64(-3), telem.Counts.M2)
	assert.Equal(t, int64(5), telem.Counts.M3)
	assert.Equal(t, int64(-3), telem.Counts.M4)
}

func TestEncoderSnapshotFourWheels(t *testing.T) {
	s, ticks, sender, _ := newTestScheduler(t, 4, "ap")

	copy(ticks.counts, []int64{1, 2, 3, 4})
	s.sendEncoders()

	require.NotEmpty(t, sender.sent)
	telem := decodeEncoders(t, sender.sent[0].payload)
	assert.Equal(t, int64(1), telem.Counts.M1)
	assert.Equal(t, int64(2), telem.Counts.M2)
	assert.Equal(t, int64(3), telem.Counts.M3)
	assert.Equal(t, int64(4), telem.Counts.M4)
}

func TestEncoderFanoutBroadcastFirstNoPeer(t *testing.T) {
	s, _, sender, _ := newTestScheduler(t, 2, "ap")

	s.sendEncoders()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "192.168.4.255:9001", sender.sent[0].to.String())
}

func TestEncoderFanoutIncludesPeerOnTelemetryPort(t *testing.T) {
	s, _, sender, peers := newTestScheduler(t, 2, "ap")

	peers.Set(&net.UDPAddr{IP: net.IPv4(192, 168, 4, 7), Port: 40000})
	s.sendEncoders()

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "192.168.4.255:9001", sender.sent[0].to.String())
	assert.Equal(t, "192.168.4.7:9001", sender.sent[1].to.String())
}

func TestEncoderFanoutStationModeAddsController(t *testing.T) {
	s, _, sender, _ := newTestScheduler(t, 2, "sta")

	s.sendEncoders()

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "192.168.4.255:9001", sender.sent[0].to.String())
	assert.Equal(t, "192.168.4.10:9001", sender.sent[1].to.String())
}

func TestEncoderFanoutSkipsUnresolvableController(t *testing.T) {
	s, _, sender, _ := newTestScheduler(t, 2, "sta")
	s.resolve = func(host string) (*net.UDPAddr, error) {
		return nil, fmt.Errorf("no such host: %s", host)
	}

	s.sendEncoders()

	require.Len(t, sender.sent, 1)
}

func TestEncoderFanoutDeduplicatesDestinations(t *testing.T) {
	s, _, sender, peers := newTestScheduler(t, 2, "sta")

	// peer and controller resolve to the same destination
	peers.Set(&net.UDPAddr{IP: net.IPv4(192, 168, 4, 10), Port: 51000})
	s.sendEncoders()

	require.Len(t, sender.sent, 2)
}

func TestAliveBeaconFanout(t *testing.T) {
	s, _, sender, peers := newTestScheduler(t, 2, "sta")

	peers.Set(&net.UDPAddr{IP: net.IPv4(192, 168, 4, 7), Port: 40000})
	s.sendAlive()

	// broadcast + peer + controller
	require.Len(t, sender.sent, 3)
}

func TestAliveFieldsStationMode(t *testing.T) {
	s, _, sender, _ := newTestScheduler(t, 2, "sta")

	s.sendAlive()

	require.NotEmpty(t, sender.sent)
	alive := models.Alive{}
	require.NoError(t, json.Unmarshal(sender.sent[0].payload, &alive))
	assert.Equal(t, models.TypeAlive, alive.Type)
	assert.Equal(t, "ESP32_Robot", alive.Device)
	assert.Equal(t, "192.168.4.1", alive.IP)
	assert.Equal(t, int64(777), alive.Ts)
	assert.Equal(t, "STA", alive.Mode)
	assert.Empty(t, alive.SSID)
	require.NotNil(t, alive.Geometry)
	assert.Equal(t, 600, alive.Geometry.CountsPerRotation)
}

func TestAliveFieldsAPMode(t *testing.T) {
	s, _, sender, _ := newTestScheduler(t, 2, "ap")

	s.sendAlive()

	require.NotEmpty(t, sender.sent)
	alive := models.Alive{}
	require.NoError(t, json.Unmarshal(sender.sent[0].payload, &alive))
	assert.Equal(t, "AP", alive.Mode)
	assert.Equal(t, "gorover", alive.SSID)
}
