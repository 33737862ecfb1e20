package quad

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/mzahmi/gorover/internal/config"
	"github.com/stianeikeland/go-rpio/v4"
)

const pollInterval = 100 * time.Microsecond

// Source counts quadrature pulses by polling edge detection on each
// wheel's A pin and reading B for direction. The polling goroutine is
// the only writer of the counts; everyone else reads atomic snapshots.
// Expects rpio to already be opened by the motor driver.
type Source struct {
	cfg    config.EncoderConfig
	aPins  []rpio.Pin
	bPins  []rpio.Pin
	counts []atomic.Int64
}

func NewSource(cfg config.EncoderConfig) *Source {
	return &Source{
		cfg:    cfg,
		aPins:  make([]rpio.Pin, cfg.Wheels),
		bPins:  make([]rpio.Pin, cfg.Wheels),
		counts: make([]atomic.Int64, cfg.Wheels),
	}
}

func (s *Source) Init() error {
	if len(s.cfg.APins) < s.cfg.Wheels || len(s.cfg.BPins) < s.cfg.Wheels {
		return fmt.Errorf("error: encoder config has pins for %d/%d wheels", len(s.cfg.APins), s.cfg.Wheels)
	}

	for i := 0; i < s.cfg.Wheels; i++ {
		s.aPins[i] = rpio.Pin(s.cfg.APins[i])
		s.bPins[i] = rpio.Pin(s.cfg.BPins[i])
		s.aPins[i].Input()
		s.aPins[i].PullUp()
		s.bPins[i].Input()
		s.bPins[i].PullUp()
		s.aPins[i].Detect(rpio.RiseEdge)
		log.Printf("encoder %d on pins A:%d B:%d\n", i, s.cfg.APins[i], s.cfg.BPins[i])
	}
	return nil
}

// Start runs the counting loop until the context ends. It never reads
// firmware state and never blocks on anything but its own poll timer.
func (s *Source) Start(ctx context.Context) error {
	log.Println("starting encoder counting")
	defer s.stopDetection()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("stopping encoder counting: %s\n", ctx.Err().Error())
			return ctx.Err()
		case <-ticker.C:
			for i := range s.aPins {
				if s.aPins[i].EdgeDetected() {
					if s.bPins[i].Read() == rpio.Low {
						s.counts[i].Add(1)
					} else {
						s.counts[i].Add(-1)
					}
				}
			}
		}
	}
}

func (s *Source) stopDetection() {
	for i := range s.aPins {
		s.aPins[i].Detect(rpio.NoEdge)
	}
}

// Count returns the raw pulse count for one wheel.
func (s *Source) Count(wheel int) int64 {
	return s.counts[wheel].Load()
}
