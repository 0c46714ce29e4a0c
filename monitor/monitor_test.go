package monitor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) *bridge.Bridge {
	t.Helper()

	b, err := bridge.New(bridge.Config{
		SimHost: "127.0.0.1",
		Roster: station.Roster{
			{Address: "10.0.0.1", DigitalInPorts: []int{5001}, DigitalOutPorts: []int{5002}},
			{Address: "10.0.0.2", AnalogInPorts: []int{5003}},
		},
	}, bridge.WithLogger(logger.NewNopMockLogger()))
	require.NoError(t, err)

	return b
}

func get(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}

	return rec.Code
}

func TestMonitor_Stations(t *testing.T) {
	require := require.New(t)

	b := newTestBridge(t)
	b.Store().WriteScalar(1, station.AnalogIn, 0, 321)
	b.Store().WriteScalar(0, station.DigitalOut, 0, 1)

	h := New(b, logger.NewNopMockLogger()).Handler()

	var stations []stationRsp
	require.Equal(http.StatusOK, get(t, h, "/api/stations", &stations))
	require.Len(stations, 2)
	require.Equal("10.0.0.1", stations[0].Address)
	require.Equal("disconnected", stations[0].LinkState)
	require.True(stations[0].State.DigitalOut[0])
	require.Equal(uint16(321), stations[1].State.AnalogIn[0])

	var one stationRsp
	require.Equal(http.StatusOK, get(t, h, "/api/stations/1", &one))
	require.Equal(1, one.ID)
	require.Equal(uint16(321), one.State.AnalogIn[0])
}

func TestMonitor_UnknownStation(t *testing.T) {
	require := require.New(t)

	h := New(newTestBridge(t), logger.NewNopMockLogger()).Handler()

	for _, path := range []string{"/api/stations/2", "/api/stations/-1", "/api/stations/x", "/api/nothing"} {
		var rsp errorRsp
		require.Equal(http.StatusNotFound, get(t, h, path, &rsp), path)
		require.NotEmpty(rsp.Error)
	}
}

func TestMonitor_WorkersAndMetrics(t *testing.T) {
	require := require.New(t)

	b := newTestBridge(t)
	h := New(b, logger.NewNopMockLogger()).Handler()

	var workers []bridge.WorkerInfo
	require.Equal(http.StatusOK, get(t, h, "/api/workers", &workers))
	require.Len(workers, 5)
	require.Equal("plc/0", workers[0].Name)
	require.Equal(bridge.StatusPending, workers[0].Status)

	var metrics bridge.Metrics
	require.Equal(http.StatusOK, get(t, h, "/api/metrics", &metrics))
	require.Len(metrics.PLC, 2)

	var info infoRsp
	require.Equal(http.StatusOK, get(t, h, "/api/info", &info))
	require.Equal(b.ID(), info.ID)
	require.Equal(2, info.Stations)
	require.Equal(3, info.Ports)
	require.Equal(5, info.Workers)
	require.Zero(info.Running)

	var one bridge.WorkerInfo
	require.Equal(http.StatusOK, get(t, h, "/api/workers/sim_out/0/digital_out/0", &one))
	require.Equal(bridge.KindSimOutput, one.Kind)
	require.Equal(5002, one.Port)

	var rsp errorRsp
	require.Equal(http.StatusNotFound, get(t, h, "/api/workers/plc/9", &rsp))
	require.Equal("worker not found", rsp.Error)
}

func TestMonitor_Resource(t *testing.T) {
	require := require.New(t)

	h := New(newTestBridge(t), logger.NewNopMockLogger()).Handler()

	var rsp resourceRsp
	require.Equal(http.StatusOK, get(t, h, "/api/resource", &rsp))
	require.Positive(rsp.MemorySize)
}

func TestMonitor_ServeListener(t *testing.T) {
	require := require.New(t)

	m := New(newTestBridge(t), logger.NewNopMockLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.ServeListener(ctx, ln) }()

	rsp, err := http.Get("http://" + ln.Addr().String() + "/api/info")
	require.NoError(err)
	require.Equal(http.StatusOK, rsp.StatusCode)
	require.NoError(rsp.Body.Close())

	cancel()
	select {
	case err := <-done:
		require.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
