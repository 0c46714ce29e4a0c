package station

import "fmt"

// Fixed slot capacities per station.
const (
	AnalogCapacity  = 8
	DigitalCapacity = 16
)

// IOClass identifies one of the four I/O slot arrays of a station.
type IOClass uint8

const (
	// AnalogIn holds analog values forwarded from the simulation to the station.
	AnalogIn IOClass = iota
	// AnalogOut holds analog values produced by the station for the simulation.
	AnalogOut
	// DigitalIn holds digital values forwarded from the simulation to the station.
	DigitalIn
	// DigitalOut holds digital values produced by the station for the simulation.
	DigitalOut
)

// IOClasses lists all classes in wire order.
var IOClasses = [...]IOClass{AnalogIn, AnalogOut, DigitalIn, DigitalOut}

// IsAnalog returns if the class holds 16-bit analog values.
func (c IOClass) IsAnalog() bool { return c == AnalogIn || c == AnalogOut }

// IsDigital returns if the class holds boolean values.
func (c IOClass) IsDigital() bool { return c == DigitalIn || c == DigitalOut }

// IsInput returns if the class is fed by the simulation.
func (c IOClass) IsInput() bool { return c == AnalogIn || c == DigitalIn }

// IsOutput returns if the class is forwarded to the simulation.
func (c IOClass) IsOutput() bool { return c == AnalogOut || c == DigitalOut }

// Capacity returns the fixed number of slots of the class.
func (c IOClass) Capacity() int {
	if c.IsAnalog() {
		return AnalogCapacity
	}

	return DigitalCapacity
}

// String returns string representation of the class.
func (c IOClass) String() string {
	switch c {
	case AnalogIn:
		return "analog_in"
	case AnalogOut:
		return "analog_out"
	case DigitalIn:
		return "digital_in"
	case DigitalOut:
		return "digital_out"
	default:
		return fmt.Sprintf("io_class(%d)", uint8(c))
	}
}

// ParseIOClass parses the class names used in roster files.
func ParseIOClass(name string) (IOClass, error) {
	for _, c := range IOClasses {
		if c.String() == name {
			return c, nil
		}
	}

	return 0, fmt.Errorf("station: unknown io class %q", name)
}
