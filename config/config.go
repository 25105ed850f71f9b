// Package config loads the bus topology that cmd/signctl drives: which
// serial device to open and which signs live at which addresses.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flipdot/signctl/proto"
)

// BusConfig describes one RS-485 line and the signs attached to it.
type BusConfig struct {
	Device string       `yaml:"device"`
	Signs  []SignConfig `yaml:"signs"`
}

// SignConfig names one sign's address and hardware type.
type SignConfig struct {
	Address  proto.Address `yaml:"address"`
	SignType string        `yaml:"sign_type"`
}

// UnknownSignType reports a sign_type name in the config file that doesn't
// match any proto.SignType.
type UnknownSignType struct {
	Address proto.Address
	Name    string
}

func (e *UnknownSignType) Error() string {
	return fmt.Sprintf("config: sign at address %04X has unrecognized sign_type %q", e.Address, e.Name)
}

var signTypeByName = func() map[string]proto.SignType {
	m := make(map[string]proto.SignType, len(proto.AllSignTypes))
	for _, t := range proto.AllSignTypes {
		m[t.String()] = t
	}
	return m
}()

// Load reads and parses a bus topology file from path.
func Load(path string) (*BusConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var cfg BusConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every sign in the config names a recognized type.
func (c *BusConfig) Validate() error {
	for _, s := range c.Signs {
		if _, ok := signTypeByName[s.SignType]; !ok {
			return &UnknownSignType{Address: s.Address, Name: s.SignType}
		}
	}
	return nil
}

// ResolveSignType resolves a SignConfig's type name to a proto.SignType. Only
// valid to call after Validate (or Load, which validates) has succeeded.
func (s SignConfig) ResolveSignType() proto.SignType {
	return signTypeByName[s.SignType]
}
