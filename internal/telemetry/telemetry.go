package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/drivetrain"
	"github.com/mzahmi/gorover/internal/encoder"
	"github.com/mzahmi/gorover/internal/models"
	"github.com/mzahmi/gorover/internal/transport"
	"github.com/prometheus/procfs"
	"golang.org/x/sync/errgroup"
)

type Sender interface {
	SendTo(addr *net.UDPAddr, payload []byte) error
}

// Scheduler emits encoder snapshots and liveness beacons on their own
// cadences, independent of command arrival. Broadcast-first policy:
// snapshots always go to the subnet broadcast so a controller can find
// the device before it has sent anything, plus unicast to the last
// known peer and, in station mode, the well-known controller host.
type Scheduler struct {
	cfg      config.TelemetryConfig
	geometry config.GeometryConfig
	enc      *encoder.Counter
	topo     drivetrain.Topology
	peers    *transport.PeerStore
	sender   Sender
	session  uuid.UUID
	uptime   func() int64

	broadcast func() *net.UDPAddr
	resolve   func(host string) (*net.UDPAddr, error)
	localIP   func() string
	netStats  func() *models.NetStats
}

func NewScheduler(cfg config.TelemetryConfig, geometry config.GeometryConfig, enc *encoder.Counter,
	topo drivetrain.Topology, peers *transport.PeerStore, sender Sender, uptime func() int64) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		geometry: geometry,
		enc:      enc,
		topo:     topo,
		peers:    peers,
		sender:   sender,
		session:  uuid.New(),
		uptime:   uptime,
	}
	s.broadcast = func() *net.UDPAddr {
		return transport.BroadcastAddr(cfg.NetInterface, cfg.TelemetryPort)
	}
	s.resolve = func(host string) (*net.UDPAddr, error) {
		return net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, cfg.TelemetryPort))
	}
	s.localIP = func() string {
		ip, err := transport.LocalIP(cfg.NetInterface)
		if err != nil {
			return ""
		}
		return ip.String()
	}
	s.netStats = func() *models.NetStats {
		return readNetStats(cfg.NetInterface)
	}
	return s
}

func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("starting telemetry scheduler")
	errGroup, errGroupCtx := errgroup.WithContext(ctx)

	// Announce ourselves once before the periodic schedule begins.
	s.sendAlive()

	errGroup.Go(func() error {
		encoderTicker := time.NewTicker(time.Duration(s.cfg.EncoderInterval) * time.Millisecond)
		defer encoderTicker.Stop()
		for {
			select {
			case <-errGroupCtx.Done():
				log.Printf("stopping encoder telemetry: %s\n", errGroupCtx.Err().Error())
				return errGroupCtx.Err()
			case <-encoderTicker.C:
				s.sendEncoders()
			}
		}
	})

	errGroup.Go(func() error {
		aliveTicker := time.NewTicker(time.Duration(s.cfg.AliveInterval) * time.Millisecond)
		defer aliveTicker.Stop()
		for {
			select {
			case <-errGroupCtx.Done():
				log.Printf("stopping alive beacon: %s\n", errGroupCtx.Err().Error())
				return errGroupCtx.Err()
			case <-aliveTicker.C:
				s.sendAlive()
			}
		}
	})

	err := errGroup.Wait()
	if err != nil {
		return fmt.Errorf("telemetry scheduler closed: %w", err)
	}
	return nil
}

func (s *Scheduler) sendEncoders() {
	payload, err := json.Marshal(models.EncoderTelemetry{
		Type:   models.TypeEncoders,
		Ts:     s.uptime(),
		Counts: s.snapshotCounts(),
	})
	if err != nil {
		log.Printf("failed encoding encoder telemetry: %s\n", err.Error())
		return
	}
	s.fanOut(payload, s.cfg.WifiMode == "sta")
}

func (s *Scheduler) sendAlive() {
	alive := models.Alive{
		Type:    models.TypeAlive,
		Device:  s.cfg.DeviceName,
		IP:      s.localIP(),
		Ts:      s.uptime(),
		Session: s.session,
		Net:     s.netStats(),
		Geometry: &models.Geometry{
			WheelDiameterMM:   s.geometry.WheelDiameterMM,
			CountsPerRotation: s.geometry.CountsPerWheelRotation(),
			DistancePerPulse:  s.geometry.DistancePerPulseMM(),
		},
	}
	if s.cfg.WifiMode == "ap" {
		alive.Mode = "AP"
		alive.SSID = s.cfg.APSSID
	} else {
		alive.Mode = "STA"
	}

	payload, err := json.Marshal(alive)
	if err != nil {
		log.Printf("failed encoding alive beacon: %s\n", err.Error())
		return
	}
	s.fanOut(payload, true)
}

// snapshotCounts fills all four schema slots; with fewer physical
// wheels the missing ones mirror the nearest physical wheel.
func (s *Scheduler) snapshotCounts() models.EncoderCounts {
	if s.topo.Wheels == 4 {
		return models.EncoderCounts{
			M1: s.enc.Read(0),
			M2: s.enc.Read(1),
			M3: s.enc.Read(2),
			M4: s.enc.Read(3),
		}
	}
	left := s.enc.Read(0)
	right := s.enc.Read(1)
	return models.EncoderCounts{M1: left, M2: right, M3: left, M4: right}
}

// fanOut sends one payload to every applicable destination: subnet
// broadcast, last known peer, and (when wanted) the controller host.
// Duplicate destinations collapse to one send.
func (s *Scheduler) fanOut(payload []byte, includeController bool) {
	sent := make(map[string]bool, 3)

	send := func(addr *net.UDPAddr) {
		if addr == nil || sent[addr.String()] {
			return
		}
		sent[addr.String()] = true
		err := s.sender.SendTo(addr, payload)
		if err != nil {
			log.Printf("failed sending telemetry to %s: %s\n", addr, err.Error())
		}
	}

	send(s.broadcast())

	if peer := s.peers.Get(); peer != nil {
		send(&net.UDPAddr{IP: peer.IP, Port: s.cfg.TelemetryPort})
	}

	if includeController && s.cfg.ControllerHost != "" {
		addr, err := s.resolve(s.cfg.ControllerHost)
		if err == nil {
			send(addr)
		}
	}
}

func readNetStats(iface string) *models.NetStats {
	p, err := procfs.Self()
	if err != nil {
		return nil
	}
	netDev, err := p.NetDev()
	if err != nil {
		return nil
	}
	line, ok := netDev[strings.ToLower(iface)]
	if !ok {
		line, ok = netDev[iface]
		if !ok {
			return nil
		}
	}
	return &models.NetStats{
		RxBytes:   line.RxBytes,
		TxBytes:   line.TxBytes,
		RxPackets: line.RxPackets,
		TxPackets: line.TxPackets,
	}
}
