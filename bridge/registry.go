package bridge

import (
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// WorkerKind identifies the data path of a worker.
type WorkerKind string

const (
	KindPLC       WorkerKind = "plc"
	KindSimOutput WorkerKind = "sim_out"
	KindSimInput  WorkerKind = "sim_in"
	KindService   WorkerKind = "service"
)

// WorkerStatus is the lifecycle stage of a worker.
type WorkerStatus string

const (
	StatusPending WorkerStatus = "pending"
	StatusRunning WorkerStatus = "running"
	StatusStopped WorkerStatus = "stopped"
	// StatusFailed marks a worker that exited with an error, e.g. an unresolvable address.
	StatusFailed WorkerStatus = "failed"
)

// WorkerInfo describes one worker of a bridge.
type WorkerInfo struct {
	Name    string       `json:"name"`
	Kind    WorkerKind   `json:"kind"`
	Station int          `json:"station"`
	Class   string       `json:"class,omitempty"`
	Index   int          `json:"index"`
	Port    int          `json:"port,omitempty"`
	Address string       `json:"address,omitempty"`
	Status  WorkerStatus `json:"status"`
	// LinkState is the PLC link state of KindPLC workers.
	LinkState string    `json:"link_state,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type registry struct {
	workers *xsync.MapOf[string, WorkerInfo]
}

func newRegistry() *registry {
	return &registry{workers: xsync.NewMapOf[string, WorkerInfo]()}
}

func (r *registry) add(info WorkerInfo) {
	info.Status = StatusPending
	info.UpdatedAt = time.Now()
	r.workers.Store(info.Name, info)
}

func (r *registry) update(name string, fn func(info *WorkerInfo)) {
	r.workers.Compute(name, func(info WorkerInfo, loaded bool) (WorkerInfo, bool) {
		if !loaded {
			return info, true
		}
		fn(&info)
		info.UpdatedAt = time.Now()

		return info, false
	})
}

func (r *registry) setStatus(name string, status WorkerStatus) {
	r.update(name, func(info *WorkerInfo) { info.Status = status })
}

func (r *registry) setLinkState(name string, state string) {
	r.update(name, func(info *WorkerInfo) { info.LinkState = state })
}

// exited records the exit of a worker; a nil err means a clean stop.
func (r *registry) exited(name string, err error) {
	r.update(name, func(info *WorkerInfo) {
		if err != nil {
			info.Status = StatusFailed
			info.LastError = err.Error()

			return
		}
		info.Status = StatusStopped
	})
}

func (r *registry) get(name string) (WorkerInfo, bool) {
	return r.workers.Load(name)
}

// list returns all workers ordered by station, kind, class and index.
func (r *registry) list() []WorkerInfo {
	infos := make([]WorkerInfo, 0, r.workers.Size())
	r.workers.Range(func(_ string, info WorkerInfo) bool {
		infos = append(infos, info)
		return true
	})

	sort.Slice(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}

		return a.Name < b.Name
	})

	return infos
}

// running returns the number of workers in StatusRunning.
func (r *registry) running() int {
	count := 0
	r.workers.Range(func(_ string, info WorkerInfo) bool {
		if info.Status == StatusRunning {
			count++
		}
		return true
	})

	return count
}
