package extstrgutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMultiValueParam(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		name string
		line string
		exp  []string
	}{
		{"single", "value", []string{"value"}},
		{"space", "value1 value2", []string{"value1", "value2"}},
		{"comma", "value1,value2", []string{"value1", "value2"}},
		{"semicolon", "value1;value2", []string{"value1", "value2"}},
		{"mixed", "value1, value2;value3 value4", []string{"value1", "value2", "value3", "value4"}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			res := SplitMultiValueParam(tc.line)
			ast.Equal(tc.exp, res)
		})
	}
}

func TestParseFloatPair(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		name string
		line string
		a, b float64
		err  bool
	}{
		{"comma", "17.03664,51.09916", 17.03664, 51.09916, false},
		{"space", "-0.1276 51.5072", -0.1276, 51.5072, false},
		{"semicolon", "1;2", 1, 2, false},
		{"single", "17.03664", 0, 0, true},
		{"three", "1,2,3", 0, 0, true},
		{"nan", "a,2", 0, 0, true},
		{"empty", "", 0, 0, true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			a, b, err := ParseFloatPair(tc.line)
			if tc.err {
				ast.Error(err)
				return
			}
			ast.NoError(err)
			ast.Equal(tc.a, a)
			ast.Equal(tc.b, b)
		})
	}
}
