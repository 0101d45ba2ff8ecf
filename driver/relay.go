// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"

	"github.com/ccnlab/eyetrack/snn"
)

// DefaultPeriod is the simulation time between relay calls, msec
const DefaultPeriod = 100

// Relay copies control values into the model and recorded data out to the
// figure, once every Period of simulation time.
type Relay struct {
	Period   float64   `def:"100" desc:"simulation time between calls"`
	Controls *Controls `desc:"controls read at each call"`
	Model    Model     `view:"-" desc:"model receiving the slider values"`
	Figure   Figure    `view:"-" desc:"figure receiving the data -- nil for none"`

	applied    Values
	stateMark  int
	spikeMarks []int
}

// NewRelay returns a relay with the default period
func NewRelay(ctrls *Controls, model Model, fig Figure) *Relay {
	return &Relay{Period: DefaultPeriod, Controls: ctrls, Model: model, Figure: fig}
}

// Attach registers the relay as a network operation of its model
func (rl *Relay) Attach() error {
	return rl.Model.AddOperation(snn.NewNetworkOperation("relay", rl.Period, rl.call))
}

// Applied returns the slider values last written into the model
func (rl *Relay) Applied() Values {
	return rl.applied
}

// Reset marks everything recorded so far as already sent
func (rl *Relay) Reset() {
	rl.stateMark = rl.Model.StateMonitor().Len()
	sms := rl.Model.SpikeMonitors()
	rl.spikeMarks = make([]int, len(sms))
	for i, sm := range sms {
		rl.spikeMarks[i] = sm.Len()
	}
}

// call is the network operation
func (rl *Relay) call(net *snn.Network, t float64) error {
	if rl.Controls.StopRequested() {
		rl.Model.Stop()
	}
	vals := rl.Controls.Values()
	rl.Model.SetTauMuscle(vals.TauMuscle)
	rl.Model.SetTauObject(vals.TauObject)
	rl.Model.SetGain(vals.Gain)
	rl.applied = vals
	return rl.Flush(t, false)
}

// Flush sends the data recorded since the last batch to the figure
func (rl *Relay) Flush(t float64, final bool) error {
	batch := rl.Collect(t)
	batch.Final = final
	if rl.Figure == nil {
		return nil
	}
	if err := rl.Figure.Update(batch); err != nil {
		return fmt.Errorf("driver: figure update at t=%g: %w", t, err)
	}
	return nil
}

// Collect returns the data recorded since the last batch and advances the marks
func (rl *Relay) Collect(t float64) TraceBatch {
	batch := TraceBatch{Time: t, Values: rl.applied}
	sm := rl.Model.StateMonitor()
	n := sm.Len()
	if rl.stateMark > n {
		rl.stateMark = 0
	}
	nu := len(sm.Units)
	for v := range sm.Vars {
		for u := range sm.Units {
			batch.State.Cols = append(batch.State.Cols, sm.ColName(v, u))
			batch.State.Vals = append(batch.State.Vals, copyFrom(sm.Data[v*nu+u], rl.stateMark, n))
		}
	}
	batch.State.T = copyFrom(sm.T, rl.stateMark, n)
	rl.stateMark = n

	sms := rl.Model.SpikeMonitors()
	if len(rl.spikeMarks) != len(sms) {
		rl.spikeMarks = make([]int, len(sms))
	}
	for i, spm := range sms {
		n := spm.Len()
		st := rl.spikeMarks[i]
		if st > n {
			st = 0
		}
		sp := Spikes{Name: spm.Nm, N: spm.Src.N, T: copyFrom(spm.T, st, n)}
		sp.Idx = make([]int, n-st)
		copy(sp.Idx, spm.Idx[st:n])
		batch.Spikes = append(batch.Spikes, sp)
		rl.spikeMarks[i] = n
	}
	return batch
}

func copyFrom(vals []float64, st, ed int) []float64 {
	cp := make([]float64, ed-st)
	copy(cp, vals[st:ed])
	return cp
}
