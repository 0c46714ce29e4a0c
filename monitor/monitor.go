// Package monitor serves a read-only HTTP API over a running bridge.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/plclink"
	"github.com/arloliu/go-plcbridge/station"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
)

const shutdownTimeout = 3 * time.Second

// Source is the bridge state exposed by the monitor.
type Source interface {
	ID() string
	Roster() station.Roster
	Store() *station.Store
	Workers() []bridge.WorkerInfo
	Worker(name string) (bridge.WorkerInfo, bool)
	RunningWorkers() int
	Metrics() bridge.Metrics
	PLCLinkState(stationID int) (plclink.LinkState, error)
}

// Monitor serves the state, workers and counters of a bridge as JSON.
type Monitor struct {
	src    Source
	logger logger.Logger
	router *mux.Router
}

// New creates a monitor of src logging with l; a nil l selects the default logger.
func New(src Source, l logger.Logger) *Monitor {
	if l == nil {
		l = logger.GetLogger()
	}

	m := &Monitor{src: src, logger: l}

	r := mux.NewRouter()
	r.HandleFunc("/api/info", m.info).Methods(http.MethodGet)
	r.HandleFunc("/api/stations", m.listStations).Methods(http.MethodGet)
	r.HandleFunc("/api/stations/{id}", m.stationDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/workers", m.listWorkers).Methods(http.MethodGet)
	r.HandleFunc("/api/workers/{name:.+}", m.workerDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", m.listMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		m.writeError(w, http.StatusNotFound, "not found")
	})
	m.router = r

	return m
}

// Handler returns the HTTP handler of the monitor API.
func (m *Monitor) Handler() http.Handler {
	return m.router
}

// Serve listens on addr and serves the API until ctx is done.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	return m.ServeListener(ctx, ln)
}

// ServeListener serves the API on ln until ctx is done. ln is closed on return.
func (m *Monitor) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	m.logger.Info("monitor listening", "addr", ln.Addr().String())

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return fmt.Errorf("monitor: %w", err)
}

type infoRsp struct {
	ID       string `json:"id"`
	Stations int    `json:"stations"`
	Ports    int    `json:"ports"`
	Workers  int    `json:"workers"`
	Running  int    `json:"running"`
}

func (m *Monitor) info(w http.ResponseWriter, _ *http.Request) {
	roster := m.src.Roster()
	m.writeJSON(w, http.StatusOK, infoRsp{
		ID:       m.src.ID(),
		Stations: len(roster),
		Ports:    roster.PortCount(),
		Workers:  len(m.src.Workers()),
		Running:  m.src.RunningWorkers(),
	})
}

type stationRsp struct {
	ID        int           `json:"id"`
	Address   string        `json:"address"`
	LinkState string        `json:"link_state"`
	State     station.State `json:"state"`
}

func (m *Monitor) station(id int) stationRsp {
	rsp := stationRsp{
		ID:      id,
		Address: m.src.Roster()[id].Address,
		State:   m.src.Store().Snapshot(id),
	}
	if state, err := m.src.PLCLinkState(id); err == nil {
		rsp.LinkState = state.String()
	}

	return rsp
}

func (m *Monitor) listStations(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]stationRsp, len(m.src.Roster()))
	for i := range rsp {
		rsp[i] = m.station(i)
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) stationDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 0 || id >= len(m.src.Roster()) {
		m.writeError(w, http.StatusNotFound, "station not found")
		return
	}

	m.writeJSON(w, http.StatusOK, m.station(id))
}

func (m *Monitor) listWorkers(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.src.Workers())
}

func (m *Monitor) workerDetails(w http.ResponseWriter, r *http.Request) {
	info, ok := m.src.Worker(mux.Vars(r)["name"])
	if !ok {
		m.writeError(w, http.StatusNotFound, "worker not found")
		return
	}

	m.writeJSON(w, http.StatusOK, info)
}

func (m *Monitor) listMetrics(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.src.Metrics())
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	NumThreads int32   `json:"num_threads"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	numThreads, _ := proc.NumThreads()

	m.writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memInfo.RSS,
		NumThreads: numThreads,
	})
}

type errorRsp struct {
	Error string `json:"error"`
}

func (m *Monitor) writeError(w http.ResponseWriter, status int, msg string) {
	m.writeJSON(w, status, errorRsp{Error: msg})
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("failed to encode monitor response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		m.logger.Debug("failed to write monitor response", "error", err)
	}
}
