package plclink

import (
	"sync"
	"sync/atomic"
)

// LinkState represents the stages of a station link.
type LinkState uint32

// Station link states. A worker loops Connecting → Exchanging → (Retrying | Disconnected) until it is stopped.
const (
	// DisconnectedState indicates that no transport is established.
	DisconnectedState LinkState = iota
	// ConnectingState indicates that the station address is being resolved and the transport established.
	ConnectingState
	// ExchangingState indicates that a frame round with the station is in progress.
	ExchangingState
	// RetryingState indicates that the last round was abandoned and the next one is awaited.
	RetryingState
)

// String returns string representation of the state.
func (s LinkState) String() string {
	switch s {
	case DisconnectedState:
		return "disconnected"
	case ConnectingState:
		return "connecting"
	case ExchangingState:
		return "exchanging"
	case RetryingState:
		return "retrying"
	default:
		return "unknown"
	}
}

// StateChangeHandler is invoked when the link state of a station changes.
//
// Note: the handler is invoked in the worker goroutine. Take care with long-running implementations.
type StateChangeHandler func(stationID int, prevState LinkState, newState LinkState)

type stateMgr struct {
	stationID int
	state     atomic.Uint32
	mu        sync.RWMutex
	handlers  []StateChangeHandler
}

func (m *stateMgr) get() LinkState {
	return LinkState(m.state.Load())
}

func (m *stateMgr) addHandler(handlers ...StateChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, handlers...)
}

// set stores newState and invokes the handlers if the state changed.
func (m *stateMgr) set(newState LinkState) {
	prevState := LinkState(m.state.Swap(uint32(newState)))
	if prevState == newState {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, handler := range m.handlers {
		if handler != nil {
			handler(m.stationID, prevState, newState)
		}
	}
}
