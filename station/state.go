package station

// State is the I/O buffer of one station.
//
// State is a value type: copies are independent, which is what Store.Snapshot relies on.
type State struct {
	AnalogIn   [AnalogCapacity]uint16 `json:"analog_in"`
	AnalogOut  [AnalogCapacity]uint16 `json:"analog_out"`
	DigitalIn  [DigitalCapacity]bool  `json:"digital_in"`
	DigitalOut [DigitalCapacity]bool  `json:"digital_out"`
}

// Scalar returns the value of one slot; digital slots read as 0 or 1.
//
// It panics if index is out of range for the class.
func (s *State) Scalar(class IOClass, index int) uint16 {
	checkIndex(class, index)

	switch class {
	case AnalogIn:
		return s.AnalogIn[index]
	case AnalogOut:
		return s.AnalogOut[index]
	case DigitalIn:
		return boolToScalar(s.DigitalIn[index])
	default:
		return boolToScalar(s.DigitalOut[index])
	}
}

// SetScalar overwrites one slot; digital slots store value != 0.
//
// It panics if index is out of range for the class.
func (s *State) SetScalar(class IOClass, index int, value uint16) {
	checkIndex(class, index)

	switch class {
	case AnalogIn:
		s.AnalogIn[index] = value
	case AnalogOut:
		s.AnalogOut[index] = value
	case DigitalIn:
		s.DigitalIn[index] = value != 0
	default:
		s.DigitalOut[index] = value != 0
	}
}

func boolToScalar(v bool) uint16 {
	if v {
		return 1
	}

	return 0
}

func checkIndex(class IOClass, index int) {
	if class > DigitalOut {
		panic("station: invalid io class " + class.String())
	}
	if index < 0 || index >= class.Capacity() {
		panic("station: " + class.String() + " index out of range")
	}
}
