package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"9876543210", "9876543210"},
		{" 9876543210 ", "9876543210"},
		{"9876543210.0", "9876543210"},
		{"9.87654321e+09", "9876543210"},
		{"98765-43210", "9876543210"},
		{"(98765) 43210", "9876543210"},
		{"９８７６５４３２１０", "9876543210"},
		{"", ""},
		{"n/a", "n/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMobile(tt.in), "NormalizeMobile(%q)", tt.in)
	}
}

func TestSameMobile_Equivalence(t *testing.T) {
	forms := []string{"9876543210", "9876543210.0", " 9876543210 ", "9.87654321e+09"}
	for _, a := range forms {
		assert.True(t, SameMobile(a, a), "reflexive %q", a)
		for _, b := range forms {
			assert.Equal(t, SameMobile(a, b), SameMobile(b, a), "symmetric %q %q", a, b)
			assert.True(t, SameMobile(a, b), "%q ~ %q", a, b)
		}
	}
	assert.False(t, SameMobile("", ""))
	assert.False(t, SameMobile("9876543210", "9876543211"))
}

func TestValidateMobile(t *testing.T) {
	assert.NoError(t, ValidateMobile("9876543210"))
	assert.NoError(t, ValidateMobile("9876543210.0"))

	for _, bad := range []string{"", "12345", "98765432101", "98765abcde"} {
		err := ValidateMobile(bad)
		assert.True(t, errors.Is(err, ErrValidation), "ValidateMobile(%q) = %v", bad, err)
	}
}
