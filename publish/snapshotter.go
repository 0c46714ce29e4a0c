package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/station"
)

const (
	DefaultTopicPrefix = "plcbridge"
	DefaultInterval    = 1 * time.Second
)

// Snapshot is the payload published for one station.
type Snapshot struct {
	Bridge    string        `json:"bridge,omitempty"`
	Station   int           `json:"station"`
	Timestamp time.Time     `json:"ts"`
	State     station.State `json:"state"`
}

// Snapshotter periodically publishes the latest state of every station of a store.
type Snapshotter struct {
	store    *station.Store
	pub      Publisher
	prefix   string
	bridgeID string
	interval time.Duration
	logger   logger.Logger
}

// SnapshotterOption is a functional option for configuring a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithTopicPrefix sets the topic prefix; snapshots go to "<prefix>/stations/<n>/state".
func WithTopicPrefix(prefix string) SnapshotterOption {
	return func(s *Snapshotter) { s.prefix = prefix }
}

// WithInterval sets the publish period.
func WithInterval(d time.Duration) SnapshotterOption {
	return func(s *Snapshotter) { s.interval = d }
}

// WithBridgeID tags every snapshot with the run id of the bridge.
func WithBridgeID(id string) SnapshotterOption {
	return func(s *Snapshotter) { s.bridgeID = id }
}

// WithLogger sets the logger of the snapshotter.
func WithLogger(l logger.Logger) SnapshotterOption {
	return func(s *Snapshotter) { s.logger = l }
}

// NewSnapshotter creates a snapshotter publishing the stations of store through pub.
func NewSnapshotter(store *station.Store, pub Publisher, opts ...SnapshotterOption) (*Snapshotter, error) {
	if store == nil || pub == nil {
		return nil, errors.New("publish: store and publisher are required")
	}

	s := &Snapshotter{
		store:    store,
		pub:      pub,
		prefix:   DefaultTopicPrefix,
		interval: DefaultInterval,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.interval <= 0 {
		return nil, fmt.Errorf("publish: invalid interval %v", s.interval)
	}
	if s.logger == nil {
		return nil, errors.New("publish: logger must not be nil")
	}

	return s, nil
}

// Topic returns the topic of a station.
func (s *Snapshotter) Topic(stationID int) string {
	return fmt.Sprintf("%s/stations/%d/state", s.prefix, stationID)
}

// PublishAll publishes one snapshot per station and returns the joined publish errors.
func (s *Snapshotter) PublishAll() error {
	now := time.Now()

	var errs []error
	for i := range s.store.Len() {
		payload, err := json.Marshal(Snapshot{
			Bridge:    s.bridgeID,
			Station:   i,
			Timestamp: now,
			State:     s.store.Snapshot(i),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := s.pub.Publish(s.Topic(i), payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Run publishes every interval until ctx is done. Publish failures are logged and retried next interval.
func (s *Snapshotter) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.PublishAll(); err != nil {
				s.logger.Warn("failed to publish station snapshots", "error", err)
			}
		}
	}
}
