package flags

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/logger"
)

// A Parser is a function that can convert a string into a native object.
type Parser[T any] func(string) (T, error)

// A Stringer is a function that can convert a native object into a string.
type Stringer[T any] func(*T) string

// A ValueFlag is a pflag.Value that knows how to take a command line value
// represented as a string and set it as a native object into a struct.
type ValueFlag[T any] struct {
	// A pointer to a variable that will be set by this flag.
	value *T

	// A Parser to turn the command line string into a native value.
	parser Parser[T]

	// A Stringer to turn the default value for the flag back into a native
	// string, to be printed as help.
	stringer Stringer[T]

	// How the value should be described in the help string. (e.g. string, int)
	typeStr string
}

// Set implements pflag.Value
func (s *ValueFlag[T]) Set(input string) error {
	value, err := s.parser(input)
	if err != nil {
		return err
	}
	*s.value = value
	return nil
}

// String implements pflag.Value
func (s *ValueFlag[T]) String() string {
	return s.stringer(s.value)
}

// Type implements pflag.Value
func (s *ValueFlag[T]) Type() string {
	return s.typeStr
}

func LoggingFlag(value *logger.LogMode) *ValueFlag[logger.LogMode] {
	return &ValueFlag[logger.LogMode]{
		value:    value,
		parser:   logger.ParseLogMode,
		stringer: func(p *logger.LogMode) string { return string(*p) },
		typeStr:  "logging-mode",
	}
}

func OutputFormatFlag(value *output.OutputFormat, allowed ...output.OutputFormat) *ValueFlag[output.OutputFormat] {
	if len(allowed) == 0 {
		allowed = output.AllFormats
	}
	names := make([]string, len(allowed))
	for i, format := range allowed {
		names[i] = string(format)
	}
	return &ValueFlag[output.OutputFormat]{
		value: value,
		parser: func(s string) (output.OutputFormat, error) {
			o := output.OutputFormat(strings.ToLower(strings.TrimSpace(s)))
			if !slices.Contains(allowed, o) {
				return o, fmt.Errorf("%q is an invalid output format. Must be one of: %s", s, strings.Join(names, ", "))
			}
			return o, nil
		},
		stringer: func(o *output.OutputFormat) string { return string(*o) },
		typeStr:  "format",
	}
}

func URLFlag(value *string, schemes ...string) *ValueFlag[string] {
	return &ValueFlag[string]{
		value: value,
		parser: func(s string) (string, error) {
			u, err := url.Parse(s)
			if err != nil {
				return "", err
			}
			if !slices.Contains(schemes, u.Scheme) {
				return "", fmt.Errorf("URL scheme must be one of: %v", schemes)
			}
			return s, nil
		},
		stringer: func(s *string) string { return *s },
		typeStr:  "url",
	}
}
