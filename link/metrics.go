package link

import "sync/atomic"

// Metrics contains atomic counters of one transport worker.
// Snapshot copies the counters for the monitor metrics endpoint.
type Metrics struct {
	// SendCount indicates the number of frames or samples sent.
	SendCount atomic.Uint64
	// RecvCount indicates the number of valid frames or samples received.
	RecvCount atomic.Uint64
	// TransportErrCount indicates the number of send and receive failures.
	TransportErrCount atomic.Uint64
	// FormatErrCount indicates the number of frames or samples with an invalid length.
	FormatErrCount atomic.Uint64
	// TimeoutCount indicates the number of abandoned exchange rounds.
	TimeoutCount atomic.Uint64
	// ConnectErrCount indicates the number of failed connection attempts.
	ConnectErrCount atomic.Uint64
	// ConnRetryGauge indicates the number of consecutive connection retries.
	ConnRetryGauge atomic.Uint32
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	SendCount         uint64 `json:"send_count"`
	RecvCount         uint64 `json:"recv_count"`
	TransportErrCount uint64 `json:"transport_err_count"`
	FormatErrCount    uint64 `json:"format_err_count"`
	TimeoutCount      uint64 `json:"timeout_count"`
	ConnectErrCount   uint64 `json:"connect_err_count"`
	ConnRetryGauge    uint32 `json:"conn_retry_gauge"`
}

// Snapshot returns a copy of the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SendCount:         m.SendCount.Load(),
		RecvCount:         m.RecvCount.Load(),
		TransportErrCount: m.TransportErrCount.Load(),
		FormatErrCount:    m.FormatErrCount.Load(),
		TimeoutCount:      m.TimeoutCount.Load(),
		ConnectErrCount:   m.ConnectErrCount.Load(),
		ConnRetryGauge:    m.ConnRetryGauge.Load(),
	}
}

// Add accumulates other into s.
func (s *MetricsSnapshot) Add(other MetricsSnapshot) {
	s.SendCount += other.SendCount
	s.RecvCount += other.RecvCount
	s.TransportErrCount += other.TransportErrCount
	s.FormatErrCount += other.FormatErrCount
	s.TimeoutCount += other.TimeoutCount
	s.ConnectErrCount += other.ConnectErrCount
	s.ConnRetryGauge += other.ConnRetryGauge
}

func (m *Metrics) IncSendCount() { m.SendCount.Add(1) }

func (m *Metrics) IncRecvCount() { m.RecvCount.Add(1) }

func (m *Metrics) IncTransportErrCount() { m.TransportErrCount.Add(1) }

func (m *Metrics) IncFormatErrCount() { m.FormatErrCount.Add(1) }

func (m *Metrics) IncTimeoutCount() { m.TimeoutCount.Add(1) }

// IncConnectErr counts a failed connection attempt and grows the retry gauge.
func (m *Metrics) IncConnectErr() {
	m.ConnectErrCount.Add(1)
	m.ConnRetryGauge.Add(1)
}

func (m *Metrics) ResetConnRetryGauge() { m.ConnRetryGauge.Store(0) }
