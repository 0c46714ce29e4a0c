package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/station"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Simulation struct {
		Host     string `yaml:"host"`
		BindHost string `yaml:"bind_host"`
	} `yaml:"simulation"`
	CommDelay      time.Duration `yaml:"comm_delay"`
	StatusInterval time.Duration `yaml:"status_interval"`
	PLC            struct {
		Port    int    `yaml:"port"`
		Network string `yaml:"network"`
	} `yaml:"plc"`
	Stations []yamlStation `yaml:"stations"`
}

type yamlStation struct {
	Address    string `yaml:"address"`
	AnalogIn   []int  `yaml:"analog_in"`
	AnalogOut  []int  `yaml:"analog_out"`
	DigitalIn  []int  `yaml:"digital_in"`
	DigitalOut []int  `yaml:"digital_out"`
}

// ParseYAML parses the YAML roster format. Unknown fields are rejected.
func ParseYAML(r io.Reader) (*bridge.Config, error) {
	var doc yamlDocument

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: %w: empty document", ErrSyntax)
		}

		return nil, fmt.Errorf("config: %w: %w", ErrSyntax, err)
	}

	cfg := &bridge.Config{
		SimHost:        doc.Simulation.Host,
		BindHost:       doc.Simulation.BindHost,
		CommDelay:      doc.CommDelay,
		StatusInterval: doc.StatusInterval,
		PLCPort:        doc.PLC.Port,
		PLCNetwork:     doc.PLC.Network,
		Roster:         make(station.Roster, len(doc.Stations)),
	}

	for i, s := range doc.Stations {
		cfg.Roster[i] = station.Info{
			Address:         s.Address,
			AnalogInPorts:   s.AnalogIn,
			AnalogOutPorts:  s.AnalogOut,
			DigitalInPorts:  s.DigitalIn,
			DigitalOutPorts: s.DigitalOut,
		}
	}

	return cfg, nil
}
