package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-plcbridge/plclink"
	"github.com/arloliu/go-plcbridge/station"
)

const (
	// DefaultStatusInterval is the period of the status report.
	DefaultStatusInterval = 3 * time.Second
	// DefaultCommDelay is the cadence of the PLC exchange and the simulation output.
	DefaultCommDelay = 100 * time.Millisecond
)

// Config describes one bridge deployment.
//
// Zero values select the defaults; a negative StatusInterval disables the status report.
type Config struct {
	// SimHost is the host of the simulation peer, required when any output port is configured.
	SimHost string
	// BindHost is the local host the simulation input ports are bound on; empty binds all interfaces.
	BindHost string
	// CommDelay is the cadence of the PLC exchange and the simulation output.
	CommDelay time.Duration
	// PLCPort is the station port used when a roster address carries none.
	PLCPort int
	// PLCNetwork is the station transport: "udp" (default), "tcp", or one of their 4/6 variants.
	PLCNetwork string
	// StatusInterval is the period of the status report.
	StatusInterval time.Duration
	// Roster lists the PLC stations, indexed by station number.
	Roster station.Roster
}

// Validate reports the first invalid field of cfg.
func (cfg Config) Validate() error {
	if len(cfg.Roster) == 0 {
		return errors.New("bridge: roster has no station")
	}
	if err := cfg.Roster.Validate(); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	if cfg.SimHost == "" && cfg.hasOutputs() {
		return errors.New("bridge: simulation host is required for output ports")
	}
	if cfg.CommDelay < 0 {
		return fmt.Errorf("bridge: negative comm delay %v", cfg.CommDelay)
	}
	if cfg.PLCPort < 0 || cfg.PLCPort > 65535 {
		return fmt.Errorf("bridge: plc port %d out of range [1, 65535]", cfg.PLCPort)
	}

	switch cfg.PLCNetwork {
	case "", "udp", "udp4", "udp6", "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("bridge: unsupported plc network %q", cfg.PLCNetwork)
	}

	return nil
}

func (cfg Config) hasOutputs() bool {
	for _, info := range cfg.Roster {
		if len(info.AnalogOutPorts) > 0 || len(info.DigitalOutPorts) > 0 {
			return true
		}
	}

	return false
}

// withDefaults returns a copy of cfg with zero values replaced by defaults.
func (cfg Config) withDefaults() Config {
	if cfg.CommDelay == 0 {
		cfg.CommDelay = DefaultCommDelay
	}
	if cfg.PLCPort == 0 {
		cfg.PLCPort = plclink.DefaultPort
	}
	if cfg.PLCNetwork == "" {
		cfg.PLCNetwork = plclink.DefaultNetwork
	}
	if cfg.StatusInterval == 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}

	return cfg
}
