package ndarray

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved keys live outside the ordinary variable namespace.
const (
	RNGNameKey  = ".RNG.name"
	RNGStateKey = ".RNG.state"
	RNGSeedKey  = ".RNG.seed"
)

// ChainState is the state of one chain: its arrays plus the name of the
// random number generator assigned to it, if any. The same shape is used for
// initial values, dumped state and parallel RNG seeds.
type ChainState struct {
	Values  Map
	RNGName string
}

// ChainStateFromAny splits the reserved ".RNG.name" entry from raw and
// coerces the remaining entries.
func ChainStateFromAny(raw map[string]any) (ChainState, error) {
	var st ChainState
	rest := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != RNGNameKey {
			rest[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok {
			return ChainState{}, &ConversionError{Name: RNGNameKey, Reason: fmt.Sprintf("expected string, got %T", v)}
		}
		st.RNGName = s
	}
	values, err := MapFromAny(rest)
	if err != nil {
		return ChainState{}, err
	}
	st.Values = values
	return st, nil
}

// Names returns the sorted variable names, excluding reserved keys.
func (s ChainState) Names() []string {
	out := make([]string, 0, len(s.Values))
	for k := range s.Values {
		if k == RNGStateKey || k == RNGSeedKey {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON flattens the state into one object with ".RNG.name" as a string.
func (s ChainState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		out[k] = v
	}
	if s.RNGName != "" {
		out[RNGNameKey] = s.RNGName
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON and also accepts nested lists.
func (s *ChainState) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ChainStateFromAny(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
