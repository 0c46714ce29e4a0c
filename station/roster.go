package station

import (
	"errors"
	"fmt"
)

// ErrEmptyAddress indicates a roster entry without a station address.
var ErrEmptyAddress = errors.New("station address is empty")

// Info is the immutable configuration of one station.
type Info struct {
	// Address is the host, or host:port, of the station.
	Address string
	// AnalogInPorts lists the simulation UDP ports feeding analog-in slots, in slot order.
	AnalogInPorts []int
	// AnalogOutPorts lists the simulation UDP ports receiving analog-out slots, in slot order.
	AnalogOutPorts []int
	// DigitalInPorts lists the simulation UDP ports feeding digital-in slots, in slot order.
	DigitalInPorts []int
	// DigitalOutPorts lists the simulation UDP ports receiving digital-out slots, in slot order.
	DigitalOutPorts []int
}

// Ports returns the ordered port list of the class.
func (info *Info) Ports(class IOClass) []int {
	switch class {
	case AnalogIn:
		return info.AnalogInPorts
	case AnalogOut:
		return info.AnalogOutPorts
	case DigitalIn:
		return info.DigitalInPorts
	case DigitalOut:
		return info.DigitalOutPorts
	default:
		return nil
	}
}

// AddPort appends port to the port list of the class.
func (info *Info) AddPort(class IOClass, port int) error {
	if len(info.Ports(class)) >= class.Capacity() {
		return fmt.Errorf("station: %s has more than %d ports", class, class.Capacity())
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("station: %s port %d out of range [1, 65535]", class, port)
	}

	switch class {
	case AnalogIn:
		info.AnalogInPorts = append(info.AnalogInPorts, port)
	case AnalogOut:
		info.AnalogOutPorts = append(info.AnalogOutPorts, port)
	case DigitalIn:
		info.DigitalInPorts = append(info.DigitalInPorts, port)
	case DigitalOut:
		info.DigitalOutPorts = append(info.DigitalOutPorts, port)
	}

	return nil
}

// Validate checks the address and the port lists against the fixed capacities.
func (info *Info) Validate() error {
	if info.Address == "" {
		return ErrEmptyAddress
	}

	for _, class := range IOClasses {
		ports := info.Ports(class)
		if len(ports) > class.Capacity() {
			return fmt.Errorf("station: %s has %d ports, capacity is %d", class, len(ports), class.Capacity())
		}
		for _, port := range ports {
			if port < 1 || port > 65535 {
				return fmt.Errorf("station: %s port %d out of range [1, 65535]", class, port)
			}
		}
	}

	return nil
}

// Roster is the ordered list of stations, indexed by station number.
type Roster []Info

// Validate validates every station of the roster.
func (r Roster) Validate() error {
	for i := range r {
		if err := r[i].Validate(); err != nil {
			return fmt.Errorf("station %d: %w", i, err)
		}
	}

	return nil
}

// PortCount returns the total number of simulation ports configured in the roster.
func (r Roster) PortCount() int {
	n := 0
	for i := range r {
		for _, class := range IOClasses {
			n += len(r[i].Ports(class))
		}
	}

	return n
}
