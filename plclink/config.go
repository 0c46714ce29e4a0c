package plclink

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-plcbridge/logger"
)

// Default values of the station link.
const (
	DefaultPort         = 6668
	DefaultNetwork      = "udp"
	DefaultCommDelay    = 100 * time.Millisecond // cadence between exchange rounds
	DefaultRecvTimeout  = 100 * time.Millisecond // bound of one receive attempt
	DefaultRecvAttempts = 10                     // receive attempts per exchange round
	DefaultDialTimeout  = 1 * time.Second
	DefaultSendTimeout  = 1 * time.Second
)

// Range limits of the station link options.
const (
	MinCommDelay = 1 * time.Millisecond
	MaxCommDelay = 60 * time.Second

	MinRecvTimeout = 1 * time.Millisecond
	MaxRecvTimeout = 10 * time.Second

	MaxRecvAttempts = 100
)

// Config holds the configuration of the PLC link workers.
//
// A Config is immutable after creation and may be shared by the workers of all stations.
type Config struct {
	port         int
	network      string
	commDelay    time.Duration
	recvTimeout  time.Duration
	recvAttempts int
	dialTimeout  time.Duration
	sendTimeout  time.Duration
	logger       logger.Logger
}

// NewConfig creates a PLC link configuration with default values, then applies opts in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		port:         DefaultPort,
		network:      DefaultNetwork,
		commDelay:    DefaultCommDelay,
		recvTimeout:  DefaultRecvTimeout,
		recvAttempts: DefaultRecvAttempts,
		dialTimeout:  DefaultDialTimeout,
		sendTimeout:  DefaultSendTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Port returns the station port used when a roster address carries none.
func (cfg *Config) Port() int { return cfg.port }

// Network returns the transport network, "udp" or "tcp".
func (cfg *Config) Network() string { return cfg.network }

// CommDelay returns the cadence between exchange rounds.
func (cfg *Config) CommDelay() time.Duration { return cfg.commDelay }

// RecvTimeout returns the bound of one receive attempt.
func (cfg *Config) RecvTimeout() time.Duration { return cfg.recvTimeout }

// RecvAttempts returns the number of receive attempts per exchange round.
func (cfg *Config) RecvAttempts() int { return cfg.recvAttempts }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithPort sets the station port used when a roster address carries none.
func WithPort(port int) Option {
	return optFunc(func(cfg *Config) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("plclink: port %d out of range [1, 65535]", port)
		}
		cfg.port = port

		return nil
	})
}

// WithNetwork sets the transport network: "udp" (default) or "tcp".
func WithNetwork(network string) Option {
	return optFunc(func(cfg *Config) error {
		switch network {
		case "udp", "udp4", "udp6", "tcp", "tcp4", "tcp6":
			cfg.network = network
			return nil
		default:
			return fmt.Errorf("plclink: unsupported network %q", network)
		}
	})
}

// WithCommDelay sets the cadence between exchange rounds.
func WithCommDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinCommDelay || d > MaxCommDelay {
			return fmt.Errorf("plclink: comm delay %v out of range [%v, %v]", d, MinCommDelay, MaxCommDelay)
		}
		cfg.commDelay = d

		return nil
	})
}

// WithRecvTimeout sets the bound of one receive attempt.
func WithRecvTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinRecvTimeout || d > MaxRecvTimeout {
			return fmt.Errorf("plclink: receive timeout %v out of range [%v, %v]", d, MinRecvTimeout, MaxRecvTimeout)
		}
		cfg.recvTimeout = d

		return nil
	})
}

// WithRecvAttempts sets the number of receive attempts per exchange round.
func WithRecvAttempts(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > MaxRecvAttempts {
			return fmt.Errorf("plclink: receive attempts %d out of range [1, %d]", n, MaxRecvAttempts)
		}
		cfg.recvAttempts = n

		return nil
	})
}

// WithDialTimeout sets the connect timeout of stream links.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("plclink: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithSendTimeout sets the write timeout of one frame.
func WithSendTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("plclink: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithLogger sets the logger of the workers.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("plclink: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
