// Package dynamo provides the integration primitives shared by the network
// engine.
//
// The package defines the small set of types every integrated population
// relies on:
//
//   - [State]: flat vector of continuous state variables
//   - [System]: an ODE right-hand side (dX/dt = f(X, t))
//   - [Integrator]: a fixed-step numerical stepper that updates X in place
//
// # Example
//
//	grp := network.NewGroup("HVA_PY", params)
//	integ := integrators.NewRK4()
//	integ.Step(grp, x, t, dt)
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// Give every concurrently running condition its own integrator.
package dynamo
