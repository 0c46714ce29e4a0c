package frame

import (
	"fmt"
	"math"
)

// Simulation sample sizes in bytes.
const (
	// OutputSampleSize is the size of a sample sent to the simulation: one unsigned 16-bit integer.
	OutputSampleSize = 2
	// InputSampleSize is the size of a sample received from the simulation: one IEEE-754 float64.
	InputSampleSize = 8
)

// EncodeOutputSample encodes one scalar sent to the simulation.
// Digital values are sent as 0 or 1.
func EncodeOutputSample(v uint16) []byte {
	buf := make([]byte, OutputSampleSize)
	byteOrder.PutUint16(buf, v)

	return buf
}

// DecodeOutputSample decodes a sample produced by EncodeOutputSample.
func DecodeOutputSample(buf []byte) (uint16, error) {
	if len(buf) != OutputSampleSize {
		return 0, fmt.Errorf("frame: %w: output sample has %d bytes, want %d", ErrFormat, len(buf), OutputSampleSize)
	}

	return byteOrder.Uint16(buf), nil
}

// EncodeInputSample encodes one floating-point sample as the simulation sends it.
func EncodeInputSample(v float64) []byte {
	buf := make([]byte, InputSampleSize)
	byteOrder.PutUint64(buf, math.Float64bits(v))

	return buf
}

// DecodeInputSample decodes one floating-point sample received from the simulation.
//
// It returns an error wrapping ErrFormat when len(buf) != InputSampleSize.
func DecodeInputSample(buf []byte) (float64, error) {
	if len(buf) != InputSampleSize {
		return 0, fmt.Errorf("frame: %w: input sample has %d bytes, want %d", ErrFormat, len(buf), InputSampleSize)
	}

	return math.Float64frombits(byteOrder.Uint64(buf)), nil
}

// AnalogFromSample converts a simulation sample into an analog slot value.
//
// The fractional part is truncated toward zero; values outside [0, 65535] saturate and NaN maps to 0.
func AnalogFromSample(v float64) uint16 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}

// DigitalFromSample converts a simulation sample into a digital slot value: nonzero is true.
func DigitalFromSample(v float64) bool {
	return v != 0
}
