// Package network is the spiking-network engine.
//
// A network is built from a [config.Settings] bundle for a single stimulus
// condition:
//
//   - [Group]: conductance-based leaky integrate-and-fire neurons, integrated
//     with any [dynamo.Integrator]
//   - [AfferentSource]: the V1 input population (sinusoidally modulated
//     Poisson trains or regular pulse trains)
//   - [Projection]: random connectivity with two-factor depression and
//     two-factor facilitation per synapse, plus axonal delays
//
// Every step runs in a fixed order: afferents emit, due synaptic events are
// delivered, monitors sample, groups integrate, and threshold crossings are
// reset and queued on outgoing projections.
//
// # Example
//
//	net, _ := network.New(settings, cond, integrators.NewRK4(), seed)
//	res, _ := net.Run(ctx, nil)
//	v, _ := res.Recording.Analog(monitor.AnalogName("HVA_PY", "V"))
package network
