package simlink

import (
	"context"
	"fmt"
	"net"

	"github.com/arloliu/go-plcbridge/frame"
	"github.com/arloliu/go-plcbridge/internal/pool"
	"github.com/arloliu/go-plcbridge/link"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
)

// OutputWorker streams one output slot to the simulation host.
type OutputWorker struct {
	ep      Endpoint
	host    string
	store   *station.Store
	cfg     *Config
	logger  logger.Logger
	metrics link.Metrics
}

// NewOutputWorker creates the worker of the output slot ep, sending to host:ep.Port.
//
// cfg may be nil to use the default configuration.
func NewOutputWorker(ep Endpoint, host string, store *station.Store, cfg *Config) (*OutputWorker, error) {
	if !ep.Class.IsOutput() {
		return nil, fmt.Errorf("simlink: %s is not an output class", ep.Class)
	}
	if err := ep.validate(store); err != nil {
		return nil, err
	}
	if ep.Port == 0 {
		return nil, fmt.Errorf("simlink: output %s needs a port", ep)
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	return &OutputWorker{
		ep:     ep,
		host:   host,
		store:  store,
		cfg:    cfg,
		logger: cfg.logger.With("station", ep.Station, "class", ep.Class.String(), "index", ep.Index, "port", ep.Port),
	}, nil
}

// Endpoint returns the slot of the worker.
func (w *OutputWorker) Endpoint() Endpoint { return w.ep }

// Metrics returns the counters of the worker.
func (w *OutputWorker) Metrics() *link.Metrics { return &w.metrics }

// Run sends the current slot value every comm delay until ctx is done.
//
// It returns an error wrapping link.ErrAddressResolution if the simulation host can't be resolved;
// send failures are logged and never stop the worker.
func (w *OutputWorker) Run(ctx context.Context) error {
	raddr, err := link.ResolveUDP(w.host, w.ep.Port)
	if err != nil {
		w.logger.Error("failed to locate simulation host", "host", w.host, "error", err)
		return err
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		w.logger.Error("failed to open simulation socket", "addr", raddr.String(), "error", err)
		return fmt.Errorf("simlink: %w: %s: %w", link.ErrAddressResolution, raddr, err)
	}
	defer conn.Close()

	w.logger.Debug("simulation output started", "addr", raddr.String())

	for {
		// the slot is read on every cycle so the simulation follows the PLC
		value := w.store.ReadScalar(w.ep.Station, w.ep.Class, w.ep.Index)

		if _, err := conn.Write(frame.EncodeOutputSample(value)); err != nil {
			w.metrics.IncTransportErrCount()
			w.logger.Warn("failed to send simulation sample", "error", err)
		} else {
			w.metrics.IncSendCount()
		}

		if !pool.Sleep(ctx, w.cfg.commDelay) {
			return nil
		}
	}
}
