package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DumpType selects which values DumpState returns.
type DumpType int

const (
	DumpData DumpType = iota
	DumpParameters
	DumpAll
)

func (t DumpType) String() string {
	switch t {
	case DumpData:
		return "data"
	case DumpParameters:
		return "parameters"
	case DumpAll:
		return "all"
	default:
		return fmt.Sprintf("DumpType(%d)", int(t))
	}
}

// ParseDumpType accepts data, parameters or all (case-insensitive).
func ParseDumpType(s string) (DumpType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data", "dump_data":
		return DumpData, nil
	case "parameters", "params", "dump_parameters":
		return DumpParameters, nil
	case "all", "", "dump_all":
		return DumpAll, nil
	default:
		return 0, fmt.Errorf("unknown dump type: %s", s)
	}
}

// FactoryType enumerates factory kinds.
type FactoryType int

const (
	SamplerFactory FactoryType = iota
	MonitorFactory
	RNGFactory
)

func (t FactoryType) String() string {
	switch t {
	case SamplerFactory:
		return "sampler"
	case MonitorFactory:
		return "monitor"
	case RNGFactory:
		return "rng"
	default:
		return fmt.Sprintf("FactoryType(%d)", int(t))
	}
}

// ParseFactoryType accepts sampler, monitor or rng (case-insensitive).
func ParseFactoryType(s string) (FactoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sampler", "samplers", "sampler_factory":
		return SamplerFactory, nil
	case "monitor", "monitors", "monitor_factory":
		return MonitorFactory, nil
	case "rng", "rngs", "rng_factory":
		return RNGFactory, nil
	default:
		return 0, fmt.Errorf("unknown factory type: %s", s)
	}
}

// MarshalJSON encodes the factory type by name.
func (t FactoryType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a factory type name.
func (t *FactoryType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseFactoryType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
