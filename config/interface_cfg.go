package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/station"
)

const stationPrefix = "station"

// ParseInterfaceCfg parses the interface.cfg roster format.
//
// Lines starting with '#' and blank lines are ignored, as are unknown top-level keys.
// num_stations must precede every station line.
func ParseInterfaceCfg(r io.Reader) (*bridge.Config, error) {
	p := &cfgParser{cfg: &bridge.Config{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", p.lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if !p.haveStations {
		return nil, fmt.Errorf("config: %w: num_stations is missing", ErrSyntax)
	}

	return p.cfg, nil
}

type cfgParser struct {
	cfg          *bridge.Config
	lineNo       int
	haveStations bool
}

func (p *cfgParser) parseLine(line string) error {
	key, rawValue, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("%w: missing '='", ErrSyntax)
	}
	key = strings.TrimSpace(key)

	value, err := unquote(strings.TrimSpace(rawValue))
	if err != nil {
		return err
	}

	switch {
	case key == "num_stations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: invalid num_stations %q", ErrSyntax, value)
		}
		if p.haveStations {
			return fmt.Errorf("%w: duplicated num_stations", ErrSyntax)
		}
		p.cfg.Roster = make(station.Roster, n)
		p.haveStations = true

	case key == "comm_delay":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%w: invalid comm_delay %q", ErrSyntax, value)
		}
		p.cfg.CommDelay = time.Duration(ms) * time.Millisecond

	case key == "simulink":
		p.cfg.SimHost = value

	case strings.HasPrefix(key, stationPrefix):
		return p.parseStation(key, value)
	}

	return nil
}

// parseStation handles "stationK.ip" and "stationK.add(class)" keys.
func (p *cfgParser) parseStation(key string, value string) error {
	numStr, function, ok := strings.Cut(key[len(stationPrefix):], ".")
	if !ok {
		return fmt.Errorf("%w: invalid station key %q", ErrSyntax, key)
	}

	id, err := strconv.Atoi(numStr)
	if err != nil {
		return fmt.Errorf("%w: invalid station number %q", ErrSyntax, numStr)
	}
	if !p.haveStations {
		return fmt.Errorf("%w: station %d defined before num_stations", ErrSyntax, id)
	}
	if id < 0 || id >= len(p.cfg.Roster) {
		return fmt.Errorf("station %d out of range [0, %d)", id, len(p.cfg.Roster))
	}

	info := &p.cfg.Roster[id]
	function = strings.TrimSpace(function)

	switch {
	case function == "ip":
		info.Address = value
		return nil

	case strings.HasPrefix(function, "add(") && strings.HasSuffix(function, ")"):
		class, err := station.ParseIOClass(strings.TrimSpace(function[len("add(") : len(function)-1]))
		if err != nil {
			return err
		}

		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: invalid port %q", ErrSyntax, value)
		}

		return info.AddPort(class, port)

	default:
		return fmt.Errorf("%w: unknown station function %q", ErrSyntax, function)
	}
}

func unquote(value string) (string, error) {
	if !strings.HasPrefix(value, `"`) {
		return value, nil
	}

	end := strings.Index(value[1:], `"`)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated quote", ErrSyntax)
	}

	return value[1 : end+1], nil
}
