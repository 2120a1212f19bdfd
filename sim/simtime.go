package sim

import (
	"fmt"
	"math"
	"strconv"
)

// Time is simulated time in ticks. Infinity is the passive time advance.
type Time int64

const (
	// Zero is the origin of simulated time and the zero-length delay.
	Zero Time = 0
	// Infinity is greater than every finite Time.
	Infinity Time = math.MaxInt64
)

// IsInf reports whether t is the Infinity sentinel.
func (t Time) IsInf() bool {
	return t == Infinity
}

// Add returns t+d, saturating at Infinity.
func (t Time) Add(d Time) Time {
	if t.IsInf() || d.IsInf() {
		return Infinity
	}
	if d > 0 && t > Infinity-d {
		return Infinity
	}
	return t + d
}

// Sub returns t-d. Infinity minus any finite value is Infinity.
// Subtracting Infinity from a finite time, or going below zero, is a contract violation.
func (t Time) Sub(d Time) Time {
	if t.IsInf() {
		if d.IsInf() {
			return Zero
		}
		return Infinity
	}
	if d.IsInf() {
		panic(fmt.Sprintf("sim.Time: cannot subtract infinity from finite time %d", t))
	}
	if d > t {
		panic(fmt.Sprintf("sim.Time: negative result %d - %d", t, d))
	}
	return t - d
}

// Min returns the smaller of a and b.
func Min(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}

func (t Time) String() string {
	if t.IsInf() {
		return "inf"
	}
	return strconv.FormatInt(int64(t), 10)
}
