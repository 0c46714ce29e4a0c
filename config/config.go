package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arloliu/go-plcbridge/bridge"
)

// ErrSyntax indicates a malformed roster file line or document.
var ErrSyntax = errors.New("syntax error")

// Load reads the bridge configuration at path.
func Load(path string) (*bridge.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var cfg *bridge.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(f)
	default:
		cfg, err = ParseInterfaceCfg(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}

	return cfg, nil
}
