package plclink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/arloliu/go-plcbridge/frame"
	"github.com/arloliu/go-plcbridge/internal/pool"
	"github.com/arloliu/go-plcbridge/link"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
)

// recvBufferSize is larger than a frame so that oversized datagrams are detected
// instead of being truncated to a valid length.
const recvBufferSize = 2 * frame.Size

// Worker runs the whole-state frame exchange with one PLC station.
//
// Each round sends the station's full state snapshot and replaces the whole state
// with the first valid frame the station answers with.
type Worker struct {
	stationID int
	info      station.Info
	store     *station.Store
	cfg       *Config
	logger    logger.Logger
	addr      string
	datagram  bool
	state     stateMgr
	metrics   link.Metrics
}

// NewWorker creates a PLC link worker of station stationID.
//
// The store must hold stationID; cfg may be nil to use the default configuration.
func NewWorker(stationID int, info station.Info, store *station.Store, cfg *Config) (*Worker, error) {
	if store == nil {
		return nil, errors.New("plclink: store must not be nil")
	}
	if stationID < 0 || stationID >= store.Len() {
		return nil, fmt.Errorf("plclink: station %d out of range [0, %d)", stationID, store.Len())
	}
	if info.Address == "" {
		return nil, fmt.Errorf("plclink: station %d: %w", stationID, station.ErrEmptyAddress)
	}

	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	w := &Worker{
		stationID: stationID,
		info:      info,
		store:     store,
		cfg:       cfg,
		addr:      link.JoinAddr(info.Address, cfg.port),
		datagram:  link.IsDatagram(cfg.network),
	}
	w.logger = cfg.logger.With("station", stationID, "address", w.addr)
	w.state.stationID = stationID

	return w, nil
}

// StationID returns the station of the worker.
func (w *Worker) StationID() int { return w.stationID }

// Address returns the station address in host:port form.
func (w *Worker) Address() string { return w.addr }

// State returns the current link state.
func (w *Worker) State() LinkState { return w.state.get() }

// Metrics returns the counters of the worker.
func (w *Worker) Metrics() *link.Metrics { return &w.metrics }

// AddStateHandler adds handlers invoked on link state changes.
func (w *Worker) AddStateHandler(handlers ...StateChangeHandler) {
	w.state.addHandler(handlers...)
}

// Run exchanges frames with the station every comm delay until ctx is done.
//
// Transport failures never stop the worker; Run returns nil once ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	defer w.state.set(DisconnectedState)

	for {
		w.state.set(ConnectingState)

		conn, err := w.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			w.metrics.IncConnectErr()
			w.logger.Error("failed to connect station", "error", err, "retry", w.metrics.ConnRetryGauge.Load())
			w.state.set(DisconnectedState)

			if !pool.Sleep(ctx, w.cfg.commDelay) {
				return nil
			}

			continue
		}

		w.metrics.ResetConnRetryGauge()
		w.logger.Debug("station link established", "network", w.cfg.network)

		w.serve(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return nil
		}

		w.state.set(DisconnectedState)
		if !pool.Sleep(ctx, w.cfg.commDelay) {
			return nil
		}
	}
}

func (w *Worker) connect(ctx context.Context) (net.Conn, error) {
	raddr, err := link.Resolve(w.cfg.network, w.addr)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: w.cfg.dialTimeout}

	conn, err := dialer.DialContext(ctx, w.cfg.network, raddr.String())
	if err != nil {
		return nil, fmt.Errorf("plclink: %w: dial %s: %w", link.ErrTransport, w.addr, err)
	}

	return conn, nil
}

// serve runs exchange rounds on conn until ctx is done or the stream link must be re-established.
func (w *Worker) serve(ctx context.Context, conn net.Conn) {
	// unblock a pending read or write once ctx is done
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	out := make([]byte, frame.Size)
	in := make([]byte, recvBufferSize)

	for {
		w.state.set(ExchangingState)

		err := w.exchange(conn, out, in)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			w.state.set(RetryingState)

			if errors.Is(err, link.ErrTimeoutExceeded) {
				w.logger.Warn("station exchange abandoned", "error", err)
			} else {
				w.logger.Error("station exchange failed", "error", err)
			}

			// a stream may hold a partial frame, resynchronize by reconnecting
			if !w.datagram {
				return
			}
		}

		if !pool.Sleep(ctx, w.cfg.commDelay) {
			return
		}
	}
}

// exchange runs one round: send the snapshot, then wait for a valid frame.
// The station state is replaced only when a valid frame arrives.
func (w *Worker) exchange(conn net.Conn, out []byte, in []byte) error {
	frame.EncodeTo(out, w.store.Snapshot(w.stationID))

	_ = conn.SetWriteDeadline(time.Now().Add(w.cfg.sendTimeout))
	if _, err := conn.Write(out); err != nil {
		w.metrics.IncTransportErrCount()
		return fmt.Errorf("plclink: %w: send: %w", link.ErrTransport, err)
	}
	w.metrics.IncSendCount()

	var (
		state station.State
		err   error
	)
	if w.datagram {
		state, err = w.receiveDatagram(conn, in)
	} else {
		state, err = w.receiveStream(conn, in)
	}
	if err != nil {
		return err
	}

	w.store.Replace(w.stationID, state)
	w.metrics.IncRecvCount()

	return nil
}

// receiveDatagram waits up to recvAttempts × recvTimeout for a datagram of exactly one frame.
// Datagrams of any other length count as failed attempts.
func (w *Worker) receiveDatagram(conn net.Conn, buf []byte) (station.State, error) {
	var lastErr error

	for attempt := 0; attempt < w.cfg.recvAttempts; attempt++ {
		_ = conn.SetReadDeadline(time.Now().Add(w.cfg.recvTimeout))

		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				w.metrics.IncTransportErrCount()
				return station.State{}, fmt.Errorf("plclink: %w: receive: %w", link.ErrTransport, err)
			}
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				// e.g. an ICMP port unreachable reported on the connected socket
				w.metrics.IncTransportErrCount()
				lastErr = err
			}

			continue
		}

		state, err := frame.Decode(buf[:n])
		if err != nil {
			w.metrics.IncFormatErrCount()
			w.logger.Debug("discard malformed frame", "error", err, "attempt", attempt+1)
			lastErr = err

			continue
		}

		return state, nil
	}

	return station.State{}, w.timeoutErr(lastErr)
}

// receiveStream reads exactly one frame, each attempt bounded by recvTimeout.
func (w *Worker) receiveStream(conn net.Conn, buf []byte) (station.State, error) {
	buf = buf[:frame.Size]
	filled := 0

	for attempt := 0; attempt < w.cfg.recvAttempts && filled < frame.Size; attempt++ {
		_ = conn.SetReadDeadline(time.Now().Add(w.cfg.recvTimeout))

		n, err := io.ReadFull(conn, buf[filled:])
		filled += n
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			w.metrics.IncTransportErrCount()
			return station.State{}, fmt.Errorf("plclink: %w: receive: %w", link.ErrTransport, err)
		}
	}

	if filled < frame.Size {
		return station.State{}, w.timeoutErr(nil)
	}

	return frame.Decode(buf)
}

func (w *Worker) timeoutErr(lastErr error) error {
	w.metrics.IncTimeoutCount()

	if lastErr != nil {
		return fmt.Errorf("plclink: %w: no valid frame after %d attempts: %w", link.ErrTimeoutExceeded, w.cfg.recvAttempts, lastErr)
	}

	return fmt.Errorf("plclink: %w: no valid frame after %d attempts", link.ErrTimeoutExceeded, w.cfg.recvAttempts)
}
