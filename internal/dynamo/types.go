package dynamo

import (
	"fmt"
	"math"
)

// State is a flat vector of continuous state variables.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AddScaled sets s[i] = x[i] + h*dx[i]. s may alias x.
func (s State) AddScaled(x State, h float64, dx State) {
	for i := range s {
		s[i] = x[i] + h*dx[i]
	}
}

// System is an ODE right-hand side. Derive writes dX/dt at (x, t) into dx.
type System interface {
	Derive(dx, x State, t float64)
	StateDim() int
}

// Integrator advances x by one fixed step in place.
type Integrator interface {
	Name() string
	Step(sys System, x State, t, dt float64)
}

// CheckDim reports ErrDimensionMismatch when x does not match sys.
func CheckDim(sys System, x State) error {
	if len(x) != sys.StateDim() {
		return fmt.Errorf("%w: state has %d values, system expects %d", ErrDimensionMismatch, len(x), sys.StateDim())
	}
	return nil
}
