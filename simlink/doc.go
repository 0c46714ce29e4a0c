// Package simlink carries single scalars between the station store and the simulation peer.
//
// Every output slot of the roster gets an OutputWorker that streams the live slot value
// to the simulation host as a 2-byte sample each cadence. Every input slot gets an
// InputWorker that binds one local UDP port and writes each received 8-byte float64
// sample into its slot.
//
// Workers are independent: a worker whose address can't be resolved or bound returns
// an error wrapping link.ErrAddressResolution from Run and the other workers keep running.
package simlink
