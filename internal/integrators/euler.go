package integrators

import "github.com/san-kum/hvasim/internal/dynamo"

// Euler is the explicit forward Euler stepper.
type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	sys.Derive(e.dx, x, t)
	x.AddScaled(x, dt, e.dx)
}
