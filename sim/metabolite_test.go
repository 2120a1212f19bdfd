package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmounts_AddSub(t *testing.T) {
	a := Amounts{"glc": 3}
	a.Add(Amounts{"glc": 2, "atp": 1})
	assert.Equal(t, Amounts{"glc": 5, "atp": 1}, a)

	a.Sub(Amounts{"glc": 5})
	assert.Equal(t, Amounts{"glc": 0, "atp": 1}, a)
}

func TestAmounts_SubBelowZeroPanicsWithoutMutation(t *testing.T) {
	a := Amounts{"glc": 1, "atp": 4}
	assert.Panics(t, func() { a.Sub(Amounts{"atp": 1, "glc": 2}) })
	assert.Equal(t, Amounts{"glc": 1, "atp": 4}, a)
}

func TestAmounts_AddNegativePanics(t *testing.T) {
	assert.Panics(t, func() { Amounts{}.Add(Amounts{"glc": -1}) })
}

func TestAmounts_Queries(t *testing.T) {
	a := Amounts{"glc": 2, "atp": 0}

	assert.True(t, a.Covers(Amounts{"glc": 2}))
	assert.False(t, a.Covers(Amounts{"glc": 3}))
	assert.False(t, a.Covers(Amounts{"nad": 1}))
	assert.True(t, a.Covers(nil))
	assert.Equal(t, Amounts{"glc": 6, "atp": 0}, a.Scale(3))
	assert.Equal(t, 2, a.Total())
	assert.True(t, a.Any())
	assert.False(t, Amounts{"atp": 0}.Any())
	assert.Equal(t, []string{"atp", "glc"}, a.Keys())
	assert.Equal(t, "{atp:0 glc:2}", a.String())
}

func TestAmounts_CloneIsIndependent(t *testing.T) {
	a := Amounts{"glc": 1}
	b := a.Clone()
	b["glc"] = 9
	assert.Equal(t, 1, a["glc"])
}
