package simlink

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-plcbridge/frame"
	"github.com/arloliu/go-plcbridge/link"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := NewConfig(
		WithLogger(logger.NewNopMockLogger()),
		WithCommDelay(10*time.Millisecond),
		WithBindHost("127.0.0.1"),
	)
	require.NoError(t, err)

	return cfg
}

type runner interface {
	Run(ctx context.Context) error
}

func startWorker(t *testing.T, w runner) func() {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop")
		}
	}
}

// simulationPeer listens where the output workers send to.
func simulationPeer(t *testing.T) (*net.UDPConn, int) {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func readSample(t *testing.T, conn *net.UDPConn) uint16 {
	t.Helper()

	buf := make([]byte, 64)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	n, err := conn.Read(buf)
	require.NoError(t, err)

	v, err := frame.DecodeOutputSample(buf[:n])
	require.NoError(t, err)

	return v
}

func TestOutputWorker_SendsSlotValues(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(1)
	store.WriteScalar(0, station.AnalogOut, 0, 42)
	store.WriteScalar(0, station.DigitalOut, 1, 1)

	analogPeer, analogPort := simulationPeer(t)
	digitalPeer, digitalPort := simulationPeer(t)

	cfg := testConfig(t)
	aw, err := NewOutputWorker(Endpoint{Station: 0, Class: station.AnalogOut, Index: 0, Port: analogPort}, "127.0.0.1", store, cfg)
	require.NoError(err)
	dw, err := NewOutputWorker(Endpoint{Station: 0, Class: station.DigitalOut, Index: 1, Port: digitalPort}, "127.0.0.1", store, cfg)
	require.NoError(err)

	stopA := startWorker(t, aw)
	stopD := startWorker(t, dw)
	defer stopA()
	defer stopD()

	require.Equal(uint16(42), readSample(t, analogPeer))
	require.Equal(uint16(1), readSample(t, digitalPeer))
	require.Eventually(func() bool { return aw.Metrics().SendCount.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestOutputWorker_ReadsLiveValue(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(2)
	store.WriteScalar(1, station.AnalogOut, 7, 100)

	peer, port := simulationPeer(t)

	w, err := NewOutputWorker(Endpoint{Station: 1, Class: station.AnalogOut, Index: 7, Port: port}, "127.0.0.1", store, testConfig(t))
	require.NoError(err)

	stop := startWorker(t, w)
	defer stop()

	require.Equal(uint16(100), readSample(t, peer))

	store.WriteScalar(1, station.AnalogOut, 7, 65535)

	deadline := time.Now().Add(time.Second)
	for readSample(t, peer) != 65535 {
		require.True(time.Now().Before(deadline), "live value never sent")
	}
}

func TestOutputWorker_ResolutionFailure(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(1)
	w, err := NewOutputWorker(Endpoint{Station: 0, Class: station.DigitalOut, Index: 0, Port: 5000}, "invalid host!", store, testConfig(t))
	require.NoError(err)

	err = w.Run(context.Background())
	require.ErrorIs(err, link.ErrAddressResolution)
	require.Zero(w.Metrics().SendCount.Load())
}

func TestNewOutputWorker_Errors(t *testing.T) {
	store := station.NewStore(1)

	tests := []struct {
		name string
		ep   Endpoint
	}{
		{"input class", Endpoint{Class: station.AnalogIn, Port: 1}},
		{"station", Endpoint{Station: 1, Class: station.AnalogOut, Port: 1}},
		{"analog index", Endpoint{Class: station.AnalogOut, Index: station.AnalogCapacity, Port: 1}},
		{"digital index", Endpoint{Class: station.DigitalOut, Index: -1, Port: 1}},
		{"no port", Endpoint{Class: station.DigitalOut}},
		{"port", Endpoint{Class: station.DigitalOut, Port: 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOutputWorker(tt.ep, "127.0.0.1", store, nil)
			require.Error(t, err)
		})
	}

	_, err := NewOutputWorker(Endpoint{Class: station.AnalogOut, Port: 1}, "127.0.0.1", nil, nil)
	require.Error(t, err)
}

func newInputWorker(t *testing.T, store *station.Store, class station.IOClass, index int) (*InputWorker, *net.UDPConn) {
	t.Helper()

	w, err := NewInputWorker(Endpoint{Station: 0, Class: class, Index: index}, store, testConfig(t))
	require.NoError(t, err)
	require.NoError(t, w.Listen())

	sender, err := net.DialUDP("udp", nil, w.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sender.Close() })

	return w, sender
}

func TestInputWorker_DigitalSample(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(1)
	w, sender := newInputWorker(t, store, station.DigitalIn, 0)

	stop := startWorker(t, w)
	defer stop()

	_, err := sender.Write(frame.EncodeInputSample(1.0))
	require.NoError(err)

	require.Eventually(func() bool {
		return store.Snapshot(0).DigitalIn[0]
	}, time.Second, 5*time.Millisecond)

	_, err = sender.Write(frame.EncodeInputSample(0))
	require.NoError(err)

	require.Eventually(func() bool {
		return !store.Snapshot(0).DigitalIn[0]
	}, time.Second, 5*time.Millisecond)
}

func TestInputWorker_AnalogSamples(t *testing.T) {
	store := station.NewStore(1)
	w, sender := newInputWorker(t, store, station.AnalogIn, 3)

	stop := startWorker(t, w)
	defer stop()

	tests := []struct {
		sample float64
		want   uint16
	}{
		{300.7, 300},
		{1e9, 65535},
		{12, 12},
		{-5, 0},
	}

	for _, tt := range tests {
		_, err := sender.Write(frame.EncodeInputSample(tt.sample))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return store.ReadScalar(0, station.AnalogIn, 3) == tt.want
		}, time.Second, 5*time.Millisecond, "sample %v", tt.sample)
	}
}

func TestInputWorker_MalformedSampleIgnored(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(1)
	store.WriteScalar(0, station.AnalogIn, 0, 7)

	w, sender := newInputWorker(t, store, station.AnalogIn, 0)

	stop := startWorker(t, w)
	defer stop()

	_, err := sender.Write([]byte{1, 2, 3})
	require.NoError(err)

	require.Eventually(func() bool { return w.Metrics().FormatErrCount.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(uint16(7), store.ReadScalar(0, station.AnalogIn, 0))

	_, err = sender.Write(frame.EncodeInputSample(9))
	require.NoError(err)

	require.Eventually(func() bool {
		return store.ReadScalar(0, station.AnalogIn, 0) == 9
	}, time.Second, 5*time.Millisecond)
	require.Equal(uint64(1), w.Metrics().RecvCount.Load())
}

func TestInputWorker_BindFailure(t *testing.T) {
	require := require.New(t)

	_, port := simulationPeer(t)

	store := station.NewStore(1)
	w, err := NewInputWorker(Endpoint{Station: 0, Class: station.DigitalIn, Index: 2, Port: port}, store, testConfig(t))
	require.NoError(err)

	err = w.Run(context.Background())
	require.ErrorIs(err, link.ErrAddressResolution)
	require.Nil(w.LocalAddr())
}

func TestInputWorker_StopsOnCancel(t *testing.T) {
	require := require.New(t)

	store := station.NewStore(1)
	w, _ := newInputWorker(t, store, station.DigitalIn, 15)

	stop := startWorker(t, w)
	stop()

	require.Nil(w.LocalAddr())
}

func TestNewInputWorker_Errors(t *testing.T) {
	store := station.NewStore(1)

	_, err := NewInputWorker(Endpoint{Class: station.DigitalOut, Port: 1}, store, nil)
	require.Error(t, err)

	_, err = NewInputWorker(Endpoint{Class: station.DigitalIn, Index: station.DigitalCapacity, Port: 1}, store, nil)
	require.Error(t, err)

	w, err := NewInputWorker(Endpoint{Class: station.DigitalIn, Index: 1, Port: 1}, store, nil)
	require.NoError(t, err)
	require.Equal(t, "0/digital_in[1]:1", w.Endpoint().String())
}

func TestNewConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig()
	require.NoError(err)
	require.Equal(DefaultCommDelay, cfg.CommDelay())
	require.Equal(DefaultBindHost, cfg.BindHost())

	_, err = NewConfig(WithCommDelay(0))
	require.Error(err)

	_, err = NewConfig(WithLogger(nil))
	require.Error(err)
}
