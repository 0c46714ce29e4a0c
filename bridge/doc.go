// Package bridge wires the PLC stations of a roster to the simulation peer.
//
// A Bridge owns the station store and one worker per data path: a PLC link worker per
// station, a simulation output worker per output slot and a simulation input worker per
// input slot. Run starts all of them under one cancellable scope together with a
// periodic status reporter, and returns after every worker has exited.
//
//	b, err := bridge.New(cfg, bridge.WithLogger(l))
//	if err != nil {
//		return err
//	}
//	err = b.Run(ctx) // blocks until ctx is done
package bridge
