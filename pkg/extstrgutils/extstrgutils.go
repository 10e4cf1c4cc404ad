package extstrgutils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitMultiValueParam splits a string into multiple values using space, comma or semicolon as separator
func SplitMultiValueParam(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	})
}

// ParseFloatPair parses exactly two floats like "17.03664,51.09916"
func ParseFloatPair(value string) (float64, float64, error) {
	vs := SplitMultiValueParam(value)
	if len(vs) != 2 {
		return 0, 0, fmt.Errorf("expected two values, got %d in %q", len(vs), value)
	}
	a, err := strconv.ParseFloat(vs[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("first value: %w", err)
	}
	b, err := strconv.ParseFloat(vs[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("second value: %w", err)
	}
	return a, b, nil
}
