// Package frame implements the fixed binary wire formats exchanged with stations and
// with the simulation endpoint.
//
// A station frame carries one complete station.State, with no header, checksum or version:
//
//	[AnalogIn  8 x uint16][AnalogOut  8 x uint16][DigitalIn 16 x byte][DigitalOut 16 x byte]
//
// Analog slots are AnalogWidth bytes wide. Digital slots are one byte each: 1 encodes true,
// and any nonzero byte decodes as true. All multi-byte values are little-endian, never host order.
// The same frame layout is used in both directions: the bridge reports its view of the station
// and the station answers with its own.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/arloliu/go-plcbridge/station"
)

// AnalogWidth is the width in bytes of one analog slot on the wire.
const AnalogWidth = 2

// Size is the length in bytes of one station frame.
const Size = 2*station.AnalogCapacity*AnalogWidth + 2*station.DigitalCapacity

// Byte offsets of each slot array inside a frame.
const (
	analogInOffset   = 0
	analogOutOffset  = analogInOffset + station.AnalogCapacity*AnalogWidth
	digitalInOffset  = analogOutOffset + station.AnalogCapacity*AnalogWidth
	digitalOutOffset = digitalInOffset + station.DigitalCapacity
)

// ErrFormat indicates that a frame or sample doesn't have the fixed length of its format.
var ErrFormat = errors.New("malformed frame")

var byteOrder = binary.LittleEndian

// Encode encodes s into a new frame of exactly Size bytes.
func Encode(s station.State) []byte {
	buf := make([]byte, Size)
	EncodeTo(buf, s)

	return buf
}

// EncodeTo encodes s into dst, which must be at least Size bytes long.
func EncodeTo(dst []byte, s station.State) {
	_ = dst[Size-1] // bounds check hint

	for i, v := range s.AnalogIn {
		byteOrder.PutUint16(dst[analogInOffset+i*AnalogWidth:], v)
	}
	for i, v := range s.AnalogOut {
		byteOrder.PutUint16(dst[analogOutOffset+i*AnalogWidth:], v)
	}
	for i, v := range s.DigitalIn {
		dst[digitalInOffset+i] = boolByte(v)
	}
	for i, v := range s.DigitalOut {
		dst[digitalOutOffset+i] = boolByte(v)
	}
}

// Decode decodes a frame of exactly Size bytes.
//
// It returns an error wrapping ErrFormat when len(buf) != Size.
func Decode(buf []byte) (station.State, error) {
	var s station.State
	if len(buf) != Size {
		return s, fmt.Errorf("frame: %w: got %d bytes, want %d", ErrFormat, len(buf), Size)
	}

	for i := range s.AnalogIn {
		s.AnalogIn[i] = byteOrder.Uint16(buf[analogInOffset+i*AnalogWidth:])
	}
	for i := range s.AnalogOut {
		s.AnalogOut[i] = byteOrder.Uint16(buf[analogOutOffset+i*AnalogWidth:])
	}
	for i := range s.DigitalIn {
		s.DigitalIn[i] = buf[digitalInOffset+i] != 0
	}
	for i := range s.DigitalOut {
		s.DigitalOut[i] = buf[digitalOutOffset+i] != 0
	}

	return s, nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
