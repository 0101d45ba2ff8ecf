// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn is a small clock-driven spiking network simulator.

A Network holds neuron Groups whose state variables evolve under
user-supplied Equations, Synapses that apply an effect on the target
group when a source unit spikes, SpikeMonitor and StateMonitor recorders,
and NetworkOperations that are called back at a fixed simulation-time
interval while the network runs.

The whole state of the network (clock, group state, refractory timers,
pending delayed spikes, monitor lengths and the random stream) can be
stored under a name and later restored, so that repeated runs can start
from identical initial conditions.
*/
package snn
