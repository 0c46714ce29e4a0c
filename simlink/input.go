package simlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/arloliu/go-plcbridge/frame"
	"github.com/arloliu/go-plcbridge/link"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
)

// InputWorker writes the samples received on one local UDP port into one input slot.
type InputWorker struct {
	ep      Endpoint
	store   *station.Store
	cfg     *Config
	logger  logger.Logger
	metrics link.Metrics

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewInputWorker creates the worker of the input slot ep, listening on ep.Port.
//
// cfg may be nil to use the default configuration.
func NewInputWorker(ep Endpoint, store *station.Store, cfg *Config) (*InputWorker, error) {
	if !ep.Class.IsInput() {
		return nil, fmt.Errorf("simlink: %s is not an input class", ep.Class)
	}
	if err := ep.validate(store); err != nil {
		return nil, err
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	return &InputWorker{
		ep:     ep,
		store:  store,
		cfg:    cfg,
		logger: cfg.logger.With("station", ep.Station, "class", ep.Class.String(), "index", ep.Index, "port", ep.Port),
	}, nil
}

// Endpoint returns the slot of the worker.
func (w *InputWorker) Endpoint() Endpoint { return w.ep }

// Metrics returns the counters of the worker.
func (w *InputWorker) Metrics() *link.Metrics { return &w.metrics }

// Listen binds the local port of the worker. Run calls it when the port isn't bound yet.
//
// It returns an error wrapping link.ErrAddressResolution if the port can't be bound.
func (w *InputWorker) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		return nil
	}

	addr := net.JoinHostPort(w.cfg.bindHost, strconv.Itoa(w.ep.Port))

	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("simlink: %w: %s: %w", link.ErrAddressResolution, addr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("simlink: %w: bind %s: %w", link.ErrAddressResolution, addr, err)
	}
	w.conn = conn

	return nil
}

// LocalAddr returns the bound address, or nil before Listen.
func (w *InputWorker) LocalAddr() net.Addr {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}

	return w.conn.LocalAddr()
}

// Run receives samples until ctx is done, then closes the socket.
//
// Receive and format errors are logged and never stop the worker.
func (w *InputWorker) Run(ctx context.Context) error {
	if err := w.Listen(); err != nil {
		w.logger.Error("failed to create simulation server", "error", err)
		return err
	}

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()

		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
	}()

	w.logger.Debug("simulation input started", "addr", conn.LocalAddr().String())

	buf := make([]byte, recvBufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			w.metrics.IncTransportErrCount()
			w.logger.Warn("failed to receive simulation sample", "error", err)

			continue
		}

		sample, err := frame.DecodeInputSample(buf[:n])
		if err != nil {
			w.metrics.IncFormatErrCount()
			w.logger.Debug("discard malformed simulation sample", "error", err)

			continue
		}

		w.store.WriteScalar(w.ep.Station, w.ep.Class, w.ep.Index, w.convert(sample))
		w.metrics.IncRecvCount()
	}
}

func (w *InputWorker) convert(sample float64) uint16 {
	if w.ep.Class.IsDigital() {
		if frame.DigitalFromSample(sample) {
			return 1
		}

		return 0
	}

	return frame.AnalogFromSample(sample)
}
