package station

import (
	"fmt"
	"sync"
)

type record struct {
	mu    sync.Mutex
	state State
}

// Store holds the State of every station.
//
// Each station has its own exclusivity boundary, so a PLC link exchange on one station
// never contends with simulation traffic of another. Replace is never observable as a
// partial update by a concurrent reader of the same station.
type Store struct {
	records []record
}

// NewStore creates a store of n zeroed station states.
func NewStore(n int) *Store {
	if n < 0 {
		panic(fmt.Sprintf("station: negative station count %d", n))
	}

	return &Store{records: make([]record, n)}
}

// Len returns the number of stations of the store.
func (s *Store) Len() int {
	return len(s.records)
}

// ReadScalar returns the latest value of one slot; digital slots read as 0 or 1.
//
// It panics if the station or index is out of range.
func (s *Store) ReadScalar(station int, class IOClass, index int) uint16 {
	rec := s.record(station)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.state.Scalar(class, index)
}

// WriteScalar overwrites one slot in place; the write is visible to the next reader.
//
// It panics if the station or index is out of range.
func (s *Store) WriteScalar(station int, class IOClass, index int, value uint16) {
	rec := s.record(station)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.state.SetScalar(class, index, value)
}

// Snapshot returns a copy of the whole state of a station.
//
// It panics if the station is out of range.
func (s *Store) Snapshot(station int) State {
	rec := s.record(station)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.state
}

// Replace installs state as the whole state of a station.
//
// It panics if the station is out of range.
func (s *Store) Replace(station int, state State) {
	rec := s.record(station)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.state = state
}

func (s *Store) record(station int) *record {
	if station < 0 || station >= len(s.records) {
		panic(fmt.Sprintf("station: station %d out of range [0, %d)", station, len(s.records)))
	}

	return &s.records[station]
}
