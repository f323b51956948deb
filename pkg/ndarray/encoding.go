package ndarray

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type layout struct {
	Shape []int      `json:"shape" yaml:"shape"`
	Data  []*float64 `json:"data" yaml:"data"`
}

func (a NDArray) layout() layout {
	l := layout{Shape: a.Shape, Data: make([]*float64, len(a.Data))}
	for i, v := range a.Data {
		if IsNA(v) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		l.Data[i] = &v
	}
	return l
}

// MarshalJSON encodes the array as {"shape": [...], "data": [...]} with NA as null.
func (a NDArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.layout())
}

// UnmarshalJSON accepts the explicit layout, nested lists or a scalar.
func (a *NDArray) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	out, err := FromAny(v)
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// MarshalYAML encodes the array using the explicit layout.
func (a NDArray) MarshalYAML() (any, error) {
	return a.layout(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (a *NDArray) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	out, err := FromAny(v)
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// ReadFile decodes a data file into raw values keyed by name. The format is
// chosen by extension: .json, .yaml/.yml or .toml.
func ReadFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("empty data path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported data extension: %s", ext)
	}
	return raw, nil
}

// LoadFile reads a data file and coerces every entry to an NDArray.
func LoadFile(path string) (Map, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return MapFromAny(raw)
}
