package simlink

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-plcbridge/logger"
)

const (
	// DefaultCommDelay is the cadence of output samples.
	DefaultCommDelay = 100 * time.Millisecond
	// DefaultBindHost binds input ports on all interfaces.
	DefaultBindHost = ""

	MinCommDelay = 1 * time.Millisecond
	MaxCommDelay = 60 * time.Second
)

// recvBufferSize is larger than a sample so that oversized datagrams are detected.
const recvBufferSize = 1024

// Config holds the configuration of the simulation workers.
type Config struct {
	commDelay time.Duration
	bindHost  string
	logger    logger.Logger
}

// NewConfig creates a simulation link configuration with default values, then applies opts in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		commDelay: DefaultCommDelay,
		bindHost:  DefaultBindHost,
		logger:    logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *Config) CommDelay() time.Duration { return cfg.commDelay }

func (cfg *Config) BindHost() string { return cfg.bindHost }

func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithCommDelay sets the cadence of output samples.
func WithCommDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinCommDelay || d > MaxCommDelay {
			return fmt.Errorf("simlink: comm delay %v out of range [%v, %v]", d, MinCommDelay, MaxCommDelay)
		}
		cfg.commDelay = d

		return nil
	})
}

// WithBindHost sets the local host input ports are bound on; empty binds all interfaces.
func WithBindHost(host string) Option {
	return optFunc(func(cfg *Config) error {
		cfg.bindHost = host
		return nil
	})
}

// WithLogger sets the logger of the workers.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("simlink: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
