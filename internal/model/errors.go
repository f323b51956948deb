package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UnusedError reports data or initial values for names the model does not use.
// Chain is 0 for data.
type UnusedError struct {
	Chain int
	Names []string
}

func (e *UnusedError) Error() string {
	names := append([]string(nil), e.Names...)
	sort.Strings(names)
	if e.Chain == 0 {
		return "unused data for variables: " + strings.Join(names, ",")
	}
	return fmt.Sprintf("unused initial values in chain %d for variables: %s", e.Chain, strings.Join(names, ","))
}

// OptionError reports invalid construction or sampling options.
type OptionError struct{ Msg string }

func (e *OptionError) Error() string { return e.Msg }

// IsUnused reports whether err is an UnusedError.
func IsUnused(err error) bool {
	var e *UnusedError
	return errors.As(err, &e)
}

// IsOption reports whether err is an OptionError.
func IsOption(err error) bool {
	var e *OptionError
	return errors.As(err, &e)
}
