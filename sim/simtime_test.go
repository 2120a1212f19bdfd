package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTime_Add_SaturatesAtInfinity(t *testing.T) {
	tests := []struct {
		name string
		t, d Time
		want Time
	}{
		{"finite", 3, 4, 7},
		{"zero delay", 5, Zero, 5},
		{"infinite delay", 5, Infinity, Infinity},
		{"infinite base", Infinity, 1, Infinity},
		{"overflow", Infinity - 1, 2, Infinity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.t.Add(tt.d))
		})
	}
}

func TestTime_Sub(t *testing.T) {
	assert.Equal(t, Time(2), Time(5).Sub(3))
	assert.Equal(t, Infinity, Infinity.Sub(3))
	assert.Equal(t, Zero, Infinity.Sub(Infinity))
	assert.Panics(t, func() { Time(5).Sub(Infinity) })
	assert.Panics(t, func() { Time(2).Sub(3) })
}

func TestTime_MinAndString(t *testing.T) {
	assert.Equal(t, Time(2), Min(2, Infinity))
	assert.Equal(t, Time(2), Min(Infinity, 2))
	assert.Equal(t, "inf", Infinity.String())
	assert.Equal(t, "42", Time(42).String())
	assert.True(t, Infinity.IsInf())
	assert.False(t, Time(0).IsInf())
}
