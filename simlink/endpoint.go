package simlink

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-plcbridge/station"
)

// Endpoint binds one station slot to one simulation port.
type Endpoint struct {
	Station int
	Class   station.IOClass
	Index   int
	// Port is the simulation port; 0 lets an input worker bind an ephemeral port.
	Port int
}

// String returns the endpoint in "station/class[index]:port" form.
func (e Endpoint) String() string {
	return fmt.Sprintf("%d/%s[%d]:%d", e.Station, e.Class, e.Index, e.Port)
}

func (e Endpoint) validate(store *station.Store) error {
	if store == nil {
		return errors.New("simlink: store must not be nil")
	}
	if e.Station < 0 || e.Station >= store.Len() {
		return fmt.Errorf("simlink: station %d out of range [0, %d)", e.Station, store.Len())
	}
	if e.Index < 0 || e.Index >= e.Class.Capacity() {
		return fmt.Errorf("simlink: %s index %d out of range [0, %d)", e.Class, e.Index, e.Class.Capacity())
	}
	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("simlink: port %d out of range [0, 65535]", e.Port)
	}

	return nil
}
