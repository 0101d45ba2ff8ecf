// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package driver runs a simulation in the background while the user adjusts it.

A Relay is registered as a periodic network operation of the engine: at each
call it forwards a stop request and the current slider values into the model,
and sends the samples recorded since its previous call to a Figure in one batch.

A Controller toggles between idle and running in response to a single button,
starting at most one background run at a time.  Each run restores the baseline
snapshot of the engine, so that all runs start from the same initial conditions.
*/
package driver

import (
	"context"

	"github.com/ccnlab/eyetrack/snn"
)

// Engine is the simulation engine run in the background
type Engine interface {
	// Run advances the simulation by duration, returning early on Stop or when ctx is done.
	Run(ctx context.Context, duration float64) error

	// Restore returns the simulation to a stored snapshot.
	Restore(name string, restoreRandom bool) error

	// Stop asks a run in progress to end.
	Stop()

	// Time is the current simulation time.
	Time() float64

	// AddOperation registers a periodic callback.
	AddOperation(op *snn.NetworkOperation) error
}

// Model is an Engine whose parameters are driven by the sliders, and
// whose recorded data are shown in a Figure.
type Model interface {
	Engine
	SetTauMuscle(tau float64)
	SetTauObject(tau float64)
	SetGain(gain float64)
	StateMonitor() *snn.StateMonitor
	SpikeMonitors() []*snn.SpikeMonitor
}

// Figure receives the recorded data in batches, one per relay call.
// An error stops the run.
type Figure interface {
	Update(batch TraceBatch) error
}

// FigureFunc adapts a function to the Figure interface
type FigureFunc func(batch TraceBatch) error

func (ff FigureFunc) Update(batch TraceBatch) error {
	return ff(batch)
}

// Trace holds new samples of the recorded state variables
type Trace struct {
	Cols []string    `json:"cols"`
	T    []float64   `json:"t"`
	Vals [][]float64 `json:"vals"`
}

// Spikes holds new spikes of one monitored group
type Spikes struct {
	Name string    `json:"name"`
	N    int       `json:"n"`
	T    []float64 `json:"t"`
	Idx  []int     `json:"idx"`
}

// TraceBatch is the data recorded since the previous batch
type TraceBatch struct {
	Time   float64  `json:"time"`
	Final  bool     `json:"final"`
	Values Values   `json:"values"`
	State  Trace    `json:"state"`
	Spikes []Spikes `json:"spikes"`
}

// Rows returns the number of new state samples
func (tb *TraceBatch) Rows() int {
	return len(tb.State.T)
}
