// Package station holds the per-station data model of the bridge: the immutable
// roster loaded at startup and the shared I/O state every worker synchronizes.
//
// A station exposes four fixed-capacity I/O classes:
//
//   - AnalogIn:   8 unsigned 16-bit slots, written from simulation samples.
//   - AnalogOut:  8 unsigned 16-bit slots, reported by the station.
//   - DigitalIn:  16 boolean slots, written from simulation samples.
//   - DigitalOut: 16 boolean slots, reported by the station.
//
// The slot arrays have fixed length regardless of how many ports a station has
// configured; unused slots stay zero and round-trip through the station frame unchanged.
//
// Store is the only shared resource between workers. Each station record is guarded by
// its own mutex, and every operation, whether a scalar read/write or a whole-record
// snapshot/replace, is atomic with respect to all other operations on that station.
package station
