package translit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lending-library/translit"
)

func TestTamil(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"தமிழ்", "thamizh"},
		{"அம்மா", "ammaa"},
		{"கடல்", "katal"},
		{"Ponniyin Selvan", "Ponniyin Selvan"},
		{"", ""},
		{"கல்கி 2", "kalki 2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, translit.Tamil(tt.in), "Tamil(%q)", tt.in)
	}
}

func TestHasTamil(t *testing.T) {
	assert.True(t, translit.HasTamil("Book தமிழ்"))
	assert.False(t, translit.HasTamil("Plain English"))
	assert.False(t, translit.HasTamil(""))
}
