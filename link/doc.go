// Package link provides the building blocks shared by the PLC and simulation transport workers:
// the error taxonomy, address resolution and per-worker metrics.
//
// Error taxonomy:
//
//   - ErrAddressResolution: a target host can't be resolved or a local port can't be bound.
//     The affected worker aborts at startup; every other worker keeps running.
//   - ErrTransport: a send or receive failed on an established channel. The failure is logged,
//     the worker loop continues and no state is mutated.
//   - ErrTimeoutExceeded: a PLC exchange round received no valid reply within its retry bound.
//     The round is abandoned and the previous station state is kept.
//   - frame.ErrFormat: a frame or sample had the wrong length. It counts as a failed receive attempt
//     on the PLC link, and as a dropped sample on the simulation input.
//
// Errors never leave the worker that owns them: there is no global error channel or supervisor.
// They surface as log lines naming the station, class, index and port, as metric counters,
// and for workers that exit with an error, as the last error of the bridge worker registry.
package link
