package bridge

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/go-plcbridge/frame"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func listenUDP(t *testing.T) (*net.UDPConn, int) {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func freeUDPPort(t *testing.T) int {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())

	return port
}

// lampFollowsButton answers every frame with the request state where lamp 0 mirrors button 0.
func lampFollowsButton(t *testing.T, conn *net.UDPConn) {
	t.Helper()

	go func() {
		buf := make([]byte, 1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}

			st, err := frame.Decode(buf[:n])
			if err != nil {
				continue
			}
			st.DigitalOut[0] = st.DigitalIn[0]

			_, _ = conn.WriteToUDP(frame.Encode(st), addr)
		}
	}()
}

func TestNew_Validation(t *testing.T) {
	valid := station.Info{Address: "127.0.0.1", DigitalOutPorts: []int{5000}}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty roster", Config{SimHost: "127.0.0.1"}},
		{"no sim host", Config{Roster: station.Roster{valid}}},
		{"negative comm delay", Config{SimHost: "h", CommDelay: -time.Second, Roster: station.Roster{valid}}},
		{"plc port", Config{SimHost: "h", PLCPort: 70000, Roster: station.Roster{valid}}},
		{"plc network", Config{SimHost: "h", PLCNetwork: "unix", Roster: station.Roster{valid}}},
		{"empty address", Config{SimHost: "h", Roster: station.Roster{{}}}},
		{"port", Config{SimHost: "h", Roster: station.Roster{{Address: "a", AnalogInPorts: []int{0}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, WithLogger(logger.NewNopMockLogger()))
			require.Error(t, err)
		})
	}
}

func TestNew_PLCNetworks(t *testing.T) {
	roster := station.Roster{{Address: "127.0.0.1"}}

	for _, network := range []string{"", "udp", "udp4", "udp6", "tcp", "tcp4", "tcp6"} {
		t.Run(network, func(t *testing.T) {
			b, err := New(Config{PLCNetwork: network, Roster: roster}, WithLogger(logger.NewNopMockLogger()))
			require.NoError(t, err)

			if network != "" {
				require.Equal(t, network, b.Config().PLCNetwork)
			}
		})
	}
}

func TestNew_OptionsAndDefaults(t *testing.T) {
	require := require.New(t)

	cfg := Config{Roster: station.Roster{{Address: "127.0.0.1", AnalogInPorts: []int{5001}}}}

	_, err := New(cfg, WithLogger(nil))
	require.Error(err)
	_, err = New(cfg, WithStatusWriter(nil))
	require.Error(err)
	_, err = New(cfg, WithService("", nil))
	require.Error(err)

	b, err := New(cfg, WithLogger(logger.NewNopMockLogger()))
	require.NoError(err)

	eff := b.Config()
	require.Equal(DefaultCommDelay, eff.CommDelay)
	require.Equal(6668, eff.PLCPort)
	require.Equal("udp", eff.PLCNetwork)
	require.Equal(DefaultStatusInterval, eff.StatusInterval)
	require.Len(b.ID(), 20)
	require.Equal(1, b.Store().Len())
}

func TestNew_RegistersWorkers(t *testing.T) {
	require := require.New(t)

	cfg := Config{
		SimHost: "127.0.0.1",
		Roster: station.Roster{
			{Address: "10.0.0.1", AnalogInPorts: []int{5001}, DigitalOutPorts: []int{5002, 5003}},
			{Address: "10.0.0.2:7000"},
		},
	}

	b, err := New(cfg, WithLogger(logger.NewNopMockLogger()))
	require.NoError(err)

	workers := b.Workers()
	require.Len(workers, 5)

	names := make([]string, len(workers))
	for i, w := range workers {
		names[i] = w.Name
		require.Equal(StatusPending, w.Status)
	}
	require.Equal([]string{
		"plc/0",
		"sim_in/0/analog_in/0",
		"sim_out/0/digital_out/0",
		"sim_out/0/digital_out/1",
		"plc/1",
	}, names)

	require.Equal("10.0.0.1:6668", workers[0].Address)
	require.Equal("disconnected", workers[0].LinkState)
	require.Equal(5003, workers[3].Port)
	require.Equal("10.0.0.2:7000", workers[4].Address)

	_, err = b.PLCMetrics(2)
	require.Error(err)
	_, err = b.PLCLinkState(-1)
	require.Error(err)

	m := b.Metrics()
	require.Len(m.PLC, 2)
}

func TestWriteStatus(t *testing.T) {
	require := require.New(t)

	b, err := New(Config{Roster: station.Roster{{Address: "a"}, {Address: "b"}}}, WithLogger(logger.NewNopMockLogger()))
	require.NoError(err)

	b.Store().WriteScalar(0, station.DigitalIn, 0, 1)
	b.Store().WriteScalar(1, station.DigitalOut, 0, 1)

	var buf bytes.Buffer
	require.NoError(b.WriteStatus(&buf))
	require.Equal("\nStation 0:\nButton: 1\tLamp: 0\n\nStation 1:\nButton: 0\tLamp: 1\n", buf.String())
}

func TestDescribeRoster(t *testing.T) {
	require := require.New(t)

	roster := station.Roster{
		{Address: "192.168.0.10", AnalogInPorts: []int{10001}, DigitalInPorts: []int{10002}, DigitalOutPorts: []int{10003, 10004}},
	}

	var buf bytes.Buffer
	require.NoError(DescribeRoster(&buf, roster))
	require.Equal("STATIONS INFO:\n\nStation 0:\nip: 192.168.0.10\nAnalogIn 0: 10001\nDigitalIn 0: 10002\nDigitalOut 0: 10003\nDigitalOut 1: 10004\n\n", buf.String())
}

func TestRun_EndToEnd(t *testing.T) {
	require := require.New(t)

	plc, plcPort := listenUDP(t)
	lampFollowsButton(t, plc)

	sim, lampPort := listenUDP(t)
	buttonPort := freeUDPPort(t)

	status := &syncBuffer{}
	serviceDone := make(chan struct{})

	b, err := New(Config{
		SimHost:        "127.0.0.1",
		BindHost:       "127.0.0.1",
		CommDelay:      10 * time.Millisecond,
		PLCPort:        plcPort,
		StatusInterval: 20 * time.Millisecond,
		Roster: station.Roster{
			{Address: "127.0.0.1", DigitalInPorts: []int{buttonPort}, DigitalOutPorts: []int{lampPort}},
		},
	},
		WithLogger(logger.NewNopMockLogger()),
		WithStatusWriter(status),
		WithService("probe", func(ctx context.Context) error {
			<-ctx.Done()
			close(serviceDone)
			return nil
		}),
	)
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	require.Eventually(func() bool {
		return b.RunningWorkers() == 4
	}, time.Second, 5*time.Millisecond)
	require.ErrorIs(b.Run(ctx), ErrAlreadyRunning)

	// press the button until the lamp sample comes back on
	button, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: buttonPort})
	require.NoError(err)
	defer button.Close()

	buf := make([]byte, 64)
	deadline := time.Now().Add(3 * time.Second)
	lampOn := false
	for !lampOn && time.Now().Before(deadline) {
		// the input port may not be bound yet
		_, _ = button.Write(frame.EncodeInputSample(1.0))

		require.NoError(sim.SetReadDeadline(time.Now().Add(50 * time.Millisecond)))
		n, err := sim.Read(buf)
		if err != nil {
			continue
		}
		v, err := frame.DecodeOutputSample(buf[:n])
		require.NoError(err)
		lampOn = v == 1
	}
	require.True(lampOn, "lamp never switched on")

	require.Eventually(func() bool {
		return strings.Contains(status.String(), "Station 0:\nButton: 1\tLamp: 1\n")
	}, time.Second, 5*time.Millisecond)

	st, err := b.PLCLinkState(0)
	require.NoError(err)
	require.NotEqual("disconnected", st.String())

	m, err := b.PLCMetrics(0)
	require.NoError(err)
	require.Positive(m.RecvCount)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}

	<-serviceDone
	for _, w := range b.Workers() {
		assert.Equal(t, StatusStopped, w.Status, w.Name)
	}
	plcInfo, ok := b.Worker("plc/0")
	require.True(ok)
	require.Equal("disconnected", plcInfo.LinkState)
}

func TestRun_FailedWorkerKeepsOthers(t *testing.T) {
	require := require.New(t)

	plc, plcPort := listenUDP(t)
	lampFollowsButton(t, plc)

	b, err := New(Config{
		SimHost:        "invalid host!",
		CommDelay:      10 * time.Millisecond,
		PLCPort:        plcPort,
		StatusInterval: -1,
		Roster: station.Roster{
			{Address: "127.0.0.1", AnalogOutPorts: []int{5000}},
		},
	}, WithLogger(logger.NewNopMockLogger()))
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	require.Eventually(func() bool {
		info, ok := b.Worker("sim_out/0/analog_out/0")
		return ok && info.Status == StatusFailed
	}, time.Second, 5*time.Millisecond)

	info, _ := b.Worker("sim_out/0/analog_out/0")
	require.Contains(info.LastError, "address resolution failed")

	require.Eventually(func() bool {
		m, _ := b.PLCMetrics(0)
		return m.RecvCount > 0
	}, time.Second, 5*time.Millisecond)

	plcInfo, _ := b.Worker("plc/0")
	require.Equal(StatusRunning, plcInfo.Status)

	cancel()
	require.NoError(<-runErr)
}
