package dispatch

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/drivetrain"
	"github.com/mzahmi/gorover/internal/encoder"
	"github.com/mzahmi/gorover/internal/models"
	"github.com/mzahmi/gorover/internal/transport"
)

// Clock lets move_ticks poll against fake time in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

type Sender interface {
	SendTo(addr *net.UDPAddr, payload []byte) error
}

// Dispatcher turns inbound control datagrams into drivetrain actions.
// It runs on the single UDP read goroutine, so a blocking move_ticks
// holds off further commands until it finishes or times out. That is
// the intended backpressure: at most one move in flight, no locking.
type Dispatcher struct {
	cfg    config.DriveConfig
	drive  *drivetrain.Drivetrain
	enc    *encoder.Counter
	peers  *transport.PeerStore
	sender Sender
	clock  Clock
	uptime func() int64
}

func New(cfg config.DriveConfig, drive *drivetrain.Drivetrain, enc *encoder.Counter,
	peers *transport.PeerStore, sender Sender, uptime func() int64) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		drive:  drive,
		enc:    enc,
		peers:  peers,
		sender: sender,
		clock:  systemClock{},
		uptime: uptime,
	}
}

// HandleDatagram parses and applies one control message. Malformed
// payloads are dropped without an ack or any state change; everything
// else, known type or not, records the sender and gets acked.
func (d *Dispatcher) HandleDatagram(data []byte, from *net.UDPAddr) {
	cmd := models.Command{}
	err := json.Unmarshal(data, &cmd)
	if err != nil {
		log.Printf("dropping malformed datagram from %s: %s\n", from, err.Error())
		return
	}

	d.peers.Set(from)

	switch cmd.Type {
	case models.TypeMotor2:
		if d.drive.Topology().Wheels == 2 {
			err = d.drive.SetPerWheel([]int{cmd.M1, cmd.M2})
		} else {
			err = d.drive.SetPair(cmd.M1, cmd.M2)
		}
	case models.TypeMotor4:
		err = d.handleMotor4(cmd)
	case models.TypeMotorPair:
		err = d.drive.SetPair(cmd.Left, cmd.Right)
	case models.TypeMoveTicks:
		err = d.moveTicks(cmd)
	default:
		log.Printf("ignoring unknown command type %q from %s\n", cmd.Type, from)
	}
	if err != nil {
		log.Printf("failed applying %s command: %s\n", cmd.Type, err.Error())
	}

	d.ack(cmd.Seq, from)
}

// handleMotor4 applies per-wheel power on 4-wheel hardware. On 2-wheel
// hardware the legacy pairs collapse to their truncated averages:
// (m1+m3)/2 left, (m2+m4)/2 right.
func (d *Dispatcher) handleMotor4(cmd models.Command) error {
	if d.drive.Topology().Wheels == 4 {
		return d.drive.SetPerWheel([]int{cmd.M1, cmd.M2, cmd.M3, cmd.M4})
	}
	return d.drive.SetPair((cmd.M1+cmd.M3)/2, (cmd.M2+cmd.M4)/2)
}

// moveTicks drives both roles at the commanded speeds until each side's
// tick delta reaches its target, or the timeout fires. The cutoff is
// deliberately AND-of-both-sides: the side that finishes first keeps
// driving so the platform tracks straighter, at the cost of overshoot.
// Motors always stop on the way out, whichever path got us there.
func (d *Dispatcher) moveTicks(cmd models.Command) error {
	leftSpeed, rightSpeed := cmd.Speeds(d.cfg.DefaultMoveSpeed)
	topo := d.drive.Topology()

	startLeft := d.enc.ReadRole(topo.Left)
	startRight := d.enc.ReadRole(topo.Right)

	err := d.drive.SetPair(leftSpeed, rightSpeed)
	if err != nil {
		stopErr := d.drive.StopAll()
		if stopErr != nil {
			log.Printf("failed stopping after move start error: %s\n", stopErr.Error())
		}
		return err
	}

	leftTarget := abs64(int64(cmd.LeftTicks))
	rightTarget := abs64(int64(cmd.RightTicks))
	poll := time.Duration(d.cfg.MovePollMs) * time.Millisecond
	deadline := d.clock.Now().Add(time.Duration(d.cfg.MoveTimeoutMs) * time.Millisecond)

	for {
		leftDelta := d.enc.ReadRole(topo.Left) - startLeft
		rightDelta := d.enc.ReadRole(topo.Right) - startRight
		if abs64(leftDelta) >= leftTarget && abs64(rightDelta) >= rightTarget {
			break
		}
		if !d.clock.Now().Before(deadline) {
			log.Printf("move_ticks timed out at left=%d/%d right=%d/%d\n",
				leftDelta, cmd.LeftTicks, rightDelta, cmd.RightTicks)
			break
		}
		d.clock.Sleep(poll)
	}

	return d.drive.StopAll()
}

func (d *Dispatcher) ack(seq int64, to *net.UDPAddr) {
	payload, err := json.Marshal(models.Ack{
		Type: models.TypeAck,
		Seq:  seq,
		Ts:   d.uptime(),
	})
	if err != nil {
		log.Printf("failed encoding ack: %s\n", err.Error())
		return
	}
	err = d.sender.SendTo(to, payload)
	if err != nil {
		log.Printf("failed sending ack to %s: %s\n", to, err.Error())
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
