package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzahmi/gorover/internal/config"
	"github.com/mzahmi/gorover/internal/dispatch"
	"github.com/mzahmi/gorover/internal/drivetrain"
	"github.com/mzahmi/gorover/internal/encoder"
	"github.com/mzahmi/gorover/internal/encoder/quad"
	"github.com/mzahmi/gorover/internal/motor"
	pcahbridge "github.com/mzahmi/gorover/internal/motor/pca_hbridge"
	pihbridge "github.com/mzahmi/gorover/internal/motor/pi_hbridge"
	"github.com/mzahmi/gorover/internal/telemetry"
	"github.com/mzahmi/gorover/internal/transport"
	"golang.org/x/sync/errgroup"
)

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	Cfg config.Config

	driver     motor.Driver
	tickSource *quad.Source
	counter    *encoder.Counter
	drive      *drivetrain.Drivetrain
	peers      *transport.PeerStore

	startedAt time.Time
}

func NewApp(cfg config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	topo, err := drivetrain.TopologyFor(cfg.DriveCfg.Wheels)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error building drivetrain topology: %w", err)
	}

	driver, err := newMotorDriver(cfg.MotorCfg)
	if err != nil {
		cancel()
		return nil, err
	}

	tickSource := quad.NewSource(cfg.EncoderCfg)

	return &App{
		Cfg:        cfg,
		ctx:        ctx,
		ctxCancel:  cancel,
		driver:     driver,
		tickSource: tickSource,
		counter:    encoder.NewCounter(tickSource, cfg.DriveCfg.Wheels),
		drive:      drivetrain.New(topo, driver),
		peers:      transport.NewPeerStore(),
		startedAt:  time.Now(),
	}, nil
}

func newMotorDriver(cfg config.MotorConfig) (motor.Driver, error) {
	switch cfg.Driver {
	case config.DriverPiBridge:
		return pihbridge.NewDriver(cfg), nil
	case config.DriverPCABridge:
		return pcahbridge.NewDriver(cfg), nil
	default:
		return nil, fmt.Errorf("unknown motor driver: %s", cfg.Driver)
	}
}

func (a *App) Start() error {
	group, groupCtx := errgroup.WithContext(a.ctx)
	log.Println("starting...")

	err := a.driver.Init()
	if err != nil {
		return fmt.Errorf("error initializing motor driver: %w", err)
	}
	defer func() {
		log.Println("stopping...")
		stopErr := a.drive.StopAll()
		if stopErr != nil {
			log.Printf("failed stopping drivetrain: %s\n", stopErr.Error())
		}
		stopErr = a.driver.Stop()
		if stopErr != nil {
			log.Printf("failed stopping motor driver: %s\n", stopErr.Error())
		}
	}()

	err = a.tickSource.Init()
	if err != nil {
		return fmt.Errorf("error initializing encoders: %w", err)
	}
	a.counter.ZeroAll()

	server, err := transport.Listen(a.Cfg.ServerCfg.ControlPort)
	if err != nil {
		return fmt.Errorf("error opening control socket: %w", err)
	}

	dispatcher := dispatch.New(a.Cfg.DriveCfg, a.drive, a.counter, a.peers, server, a.uptimeMillis)
	scheduler := telemetry.NewScheduler(a.Cfg.TelemetryCfg, a.Cfg.GeometryCfg, a.counter,
		a.drive.Topology(), a.peers, server, a.uptimeMillis)

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-signalChannel:
			log.Printf("received signal: %s\n", sig)
			a.ctxCancel()
			return fmt.Errorf("received signal: %s", sig)
		case <-groupCtx.Done():
			log.Println("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	//Hardware counting context
	group.Go(func() error {
		return a.tickSource.Start(groupCtx)
	})

	//Network callback context
	group.Go(func() error {
		return server.Serve(groupCtx, dispatcher.HandleDatagram)
	})

	//Periodic scheduler context
	group.Go(func() error {
		return scheduler.Start(groupCtx)
	})

	err = group.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("context was cancelled")
			return nil
		} else {
			return fmt.Errorf("server stopping due to error - %w", err)
		}
	}

	log.Println("shutting down")
	return nil
}

func (a *App) uptimeMillis() int64 {
	return time.Since(a.startedAt).Milliseconds()
}
