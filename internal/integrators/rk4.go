package integrators

import "github.com/san-kum/hvasim/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	mid            dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) grow(n int) {
	if len(r.k1) == n {
		return
	}
	buf := make(dynamo.State, 5*n)
	r.k1, r.k2, r.k3, r.k4, r.mid = buf[:n], buf[n:2*n], buf[2*n:3*n], buf[3*n:4*n], buf[4*n:]
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) {
	r.grow(len(x))
	h := dt / 2

	sys.Derive(r.k1, x, t)
	r.mid.AddScaled(x, h, r.k1)
	sys.Derive(r.k2, r.mid, t+h)
	r.mid.AddScaled(x, h, r.k2)
	sys.Derive(r.k3, r.mid, t+h)
	r.mid.AddScaled(x, dt, r.k3)
	sys.Derive(r.k4, r.mid, t+dt)

	w := dt / 6
	for i := range x {
		x[i] += w * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
}
