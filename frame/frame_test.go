package frame

import (
	"math"
	"math/rand"
	"testing"

	"github.com/arloliu/go-plcbridge/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomState(r *rand.Rand) station.State {
	var s station.State
	for i := range s.AnalogIn {
		s.AnalogIn[i] = uint16(r.Intn(math.MaxUint16 + 1))
		s.AnalogOut[i] = uint16(r.Intn(math.MaxUint16 + 1))
	}
	for i := range s.DigitalIn {
		s.DigitalIn[i] = r.Intn(2) == 1
		s.DigitalOut[i] = r.Intn(2) == 1
	}

	return s
}

func TestFrameSize(t *testing.T) {
	require.Equal(t, 64, Size)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	require := require.New(t)

	r := rand.New(rand.NewSource(1))
	states := []station.State{{}}
	for i := 0; i < 500; i++ {
		states = append(states, randomState(r))
	}

	var full station.State
	for i := range full.AnalogIn {
		full.AnalogIn[i] = math.MaxUint16
		full.AnalogOut[i] = math.MaxUint16
	}
	for i := range full.DigitalIn {
		full.DigitalIn[i] = true
		full.DigitalOut[i] = true
	}
	states = append(states, full)

	for _, s := range states {
		buf := Encode(s)
		require.Len(buf, Size)

		decoded, err := Decode(buf)
		require.NoError(err)
		require.Equal(s, decoded)
	}
}

func TestEncode_Layout(t *testing.T) {
	assert := assert.New(t)

	var s station.State
	s.AnalogIn[0] = 0x0102
	s.AnalogIn[7] = 0xBEEF
	s.AnalogOut[0] = 42
	s.DigitalIn[0] = true
	s.DigitalOut[15] = true

	buf := Encode(s)
	assert.Equal([]byte{0x02, 0x01}, buf[0:2], "analog slots are little-endian")
	assert.Equal([]byte{0xEF, 0xBE}, buf[14:16])
	assert.Equal([]byte{42, 0}, buf[16:18], "analogOut follows analogIn")
	assert.Equal(byte(1), buf[32], "digitalIn follows analogOut")
	assert.Equal(byte(0), buf[33])
	assert.Equal(byte(1), buf[63], "digitalOut is last")
}

func TestDecode_NonzeroDigitalByteIsTrue(t *testing.T) {
	buf := make([]byte, Size)
	buf[digitalInOffset+2] = 0x7F
	buf[digitalOutOffset] = 0xFF

	s, err := Decode(buf)
	require.NoError(t, err)
	assert.True(t, s.DigitalIn[2])
	assert.True(t, s.DigitalOut[0])
	assert.False(t, s.DigitalIn[0])
}

func TestDecode_RejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, Size - 1, Size + 1, 128, 8192} {
		_, err := Decode(make([]byte, n))
		require.ErrorIs(t, err, ErrFormat, "length %d", n)
	}
}

func TestEncodeTo_ReusesBuffer(t *testing.T) {
	require := require.New(t)

	buf := make([]byte, Size)
	for i := range buf {
		buf[i] = 0xFF
	}

	EncodeTo(buf, station.State{})
	require.Equal(make([]byte, Size), buf)
	require.Panics(func() { EncodeTo(make([]byte, Size-1), station.State{}) })
}
