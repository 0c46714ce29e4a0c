package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/arloliu/go-plcbridge/internal/task"
	"github.com/arloliu/go-plcbridge/link"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/plclink"
	"github.com/arloliu/go-plcbridge/simlink"
	"github.com/arloliu/go-plcbridge/station"
	"github.com/rs/xid"
)

// ErrAlreadyRunning is returned by Run while the bridge is running.
var ErrAlreadyRunning = errors.New("bridge: already running")

type service struct {
	name string
	fn   func(ctx context.Context) error
}

// runnable is the common shape of every worker started by Run.
type runnable struct {
	name string
	fn   task.Func
}

// Bridge connects the stations of one roster to the simulation peer.
type Bridge struct {
	id           xid.ID
	cfg          Config
	store        *station.Store
	logger       logger.Logger
	statusWriter io.Writer
	services     []service

	plcWorkers []*plclink.Worker
	outWorkers []*simlink.OutputWorker
	inWorkers  []*simlink.InputWorker
	runnables  []runnable

	registry *registry
	running  atomic.Bool
}

// New validates cfg and creates a bridge with one worker per data path of the roster.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bridge{
		id:           xid.New(),
		cfg:          cfg.withDefaults(),
		store:        station.NewStore(len(cfg.Roster)),
		logger:       logger.GetLogger(),
		statusWriter: os.Stdout,
		registry:     newRegistry(),
	}

	for _, opt := range opts {
		if err := opt.apply(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("bridge", b.id.String())

	if err := b.buildWorkers(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Bridge) buildWorkers() error {
	plcCfg, err := plclink.NewConfig(
		plclink.WithPort(b.cfg.PLCPort),
		plclink.WithNetwork(b.cfg.PLCNetwork),
		plclink.WithCommDelay(b.cfg.CommDelay),
		plclink.WithLogger(b.logger),
	)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}

	simCfg, err := simlink.NewConfig(
		simlink.WithCommDelay(b.cfg.CommDelay),
		simlink.WithBindHost(b.cfg.BindHost),
		simlink.WithLogger(b.logger),
	)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}

	for id, info := range b.cfg.Roster {
		if err := b.addPLCWorker(id, info, plcCfg); err != nil {
			return err
		}

		for _, class := range station.IOClasses {
			for index, port := range info.Ports(class) {
				if err := b.addSimWorker(simlink.Endpoint{Station: id, Class: class, Index: index, Port: port}, simCfg); err != nil {
					return err
				}
			}
		}
	}

	for _, svc := range b.services {
		name := "service/" + svc.name
		b.registry.add(WorkerInfo{Name: name, Kind: KindService, Station: -1})
		b.runnables = append(b.runnables, runnable{name: name, fn: svc.fn})
	}

	return nil
}

func (b *Bridge) addPLCWorker(id int, info station.Info, cfg *plclink.Config) error {
	w, err := plclink.NewWorker(id, info, b.store, cfg)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}

	name := fmt.Sprintf("plc/%d", id)
	b.registry.add(WorkerInfo{
		Name:      name,
		Kind:      KindPLC,
		Station:   id,
		Address:   w.Address(),
		LinkState: w.State().String(),
	})
	w.AddStateHandler(func(_ int, _ plclink.LinkState, cur plclink.LinkState) {
		b.registry.setLinkState(name, cur.String())
	})

	b.plcWorkers = append(b.plcWorkers, w)
	b.runnables = append(b.runnables, runnable{name: name, fn: w.Run})

	return nil
}

func (b *Bridge) addSimWorker(ep simlink.Endpoint, cfg *simlink.Config) error {
	info := WorkerInfo{
		Station: ep.Station,
		Class:   ep.Class.String(),
		Index:   ep.Index,
		Port:    ep.Port,
	}

	if ep.Class.IsOutput() {
		w, err := simlink.NewOutputWorker(ep, b.cfg.SimHost, b.store, cfg)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}

		info.Kind = KindSimOutput
		info.Name = fmt.Sprintf("sim_out/%d/%s/%d", ep.Station, ep.Class, ep.Index)
		info.Address = b.cfg.SimHost
		b.outWorkers = append(b.outWorkers, w)
		b.runnables = append(b.runnables, runnable{name: info.Name, fn: w.Run})
	} else {
		w, err := simlink.NewInputWorker(ep, b.store, cfg)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}

		info.Kind = KindSimInput
		info.Name = fmt.Sprintf("sim_in/%d/%s/%d", ep.Station, ep.Class, ep.Index)
		info.Address = b.cfg.BindHost
		b.inWorkers = append(b.inWorkers, w)
		b.runnables = append(b.runnables, runnable{name: info.Name, fn: w.Run})
	}

	b.registry.add(info)

	return nil
}

// ID returns the unique run id of the bridge.
func (b *Bridge) ID() string { return b.id.String() }

// Config returns the effective configuration with defaults applied.
func (b *Bridge) Config() Config { return b.cfg }

// Store returns the station store shared by all workers.
func (b *Bridge) Store() *station.Store { return b.store }

// Roster returns the station roster.
func (b *Bridge) Roster() station.Roster { return b.cfg.Roster }

// Workers returns the registry entries of all workers.
func (b *Bridge) Workers() []WorkerInfo { return b.registry.list() }

// Worker returns the registry entry of the named worker, e.g. "plc/0".
func (b *Bridge) Worker(name string) (WorkerInfo, bool) { return b.registry.get(name) }

// RunningWorkers returns the number of workers currently running.
func (b *Bridge) RunningWorkers() int { return b.registry.running() }

// PLCLinkState returns the PLC link state of a station.
func (b *Bridge) PLCLinkState(stationID int) (plclink.LinkState, error) {
	if stationID < 0 || stationID >= len(b.plcWorkers) {
		return 0, fmt.Errorf("bridge: station %d out of range [0, %d)", stationID, len(b.plcWorkers))
	}

	return b.plcWorkers[stationID].State(), nil
}

// PLCMetrics returns the PLC link counters of a station.
func (b *Bridge) PLCMetrics(stationID int) (link.MetricsSnapshot, error) {
	if stationID < 0 || stationID >= len(b.plcWorkers) {
		return link.MetricsSnapshot{}, fmt.Errorf("bridge: station %d out of range [0, %d)", stationID, len(b.plcWorkers))
	}

	return b.plcWorkers[stationID].Metrics().Snapshot(), nil
}

// Metrics is a point-in-time summary of the bridge counters.
type Metrics struct {
	PLC       []link.MetricsSnapshot `json:"plc"`
	SimOutput link.MetricsSnapshot   `json:"sim_output"`
	SimInput  link.MetricsSnapshot   `json:"sim_input"`
}

// Metrics returns the per-station PLC counters and the summed simulation counters.
func (b *Bridge) Metrics() Metrics {
	m := Metrics{PLC: make([]link.MetricsSnapshot, len(b.plcWorkers))}
	for i, w := range b.plcWorkers {
		m.PLC[i] = w.Metrics().Snapshot()
	}
	for _, w := range b.outWorkers {
		m.SimOutput.Add(w.Metrics().Snapshot())
	}
	for _, w := range b.inWorkers {
		m.SimInput.Add(w.Metrics().Snapshot())
	}

	return m
}

// Run starts every worker and the status reporter, then blocks until ctx is done.
//
// A worker that fails at startup is logged and marked failed; the others keep running.
// Run returns after all workers have exited.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	mgr := task.NewManager(ctx, b.logger)

	b.logger.Info("bridge started",
		"stations", len(b.cfg.Roster),
		"sim_ports", b.cfg.Roster.PortCount(),
		"plc_network", b.cfg.PLCNetwork,
		"comm_delay", b.cfg.CommDelay.String(),
	)

	for _, r := range b.runnables {
		name := r.name
		b.registry.setStatus(name, StatusRunning)

		err := mgr.Go(name, r.fn, func(err error) {
			if err != nil {
				b.logger.Error("worker exited", "worker", name, "error", err)
			}
			b.registry.exited(name, err)
		})
		if err != nil {
			b.registry.exited(name, err)
		}
	}

	if b.cfg.StatusInterval > 0 {
		err := mgr.GoInterval("status", b.cfg.StatusInterval, false, func(context.Context) {
			if err := b.WriteStatus(b.statusWriter); err != nil {
				b.logger.Warn("failed to write status", "error", err)
			}
		})
		if err != nil {
			b.logger.Warn("failed to start status reporter", "error", err)
		}
	}

	<-mgr.Context().Done()

	mgr.Stop()
	mgr.Wait()

	b.logger.Info("bridge stopped")

	return nil
}
