// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"math"
)

// OnPreFunc is the effect of a presynaptic spike on unit j of the post group,
// through a synapse of weight w.
type OnPreFunc func(post *Group, j int, w float64)

// Synapses connects units of a Pre group to units of a Post group.
// When a Pre unit spikes, OnPre is applied to each of its targets,
// after Delay (0 = within the same step).
type Synapses struct {
	Nm    string    `desc:"name of the synapses, unique within a network"`
	Pre   *Group    `desc:"source group"`
	Post  *Group    `desc:"target group"`
	OnPre OnPreFunc `view:"-" desc:"effect of a presynaptic spike"`
	Delay float64   `desc:"transmission delay"`

	pre     []int
	post    []int
	wt      []float64
	byPre   [][]int
	pending map[int64][]int
}

// NewSynapses returns synapses from pre to post with no connections.
func NewSynapses(name string, pre, post *Group, onPre OnPreFunc) *Synapses {
	sy := &Synapses{Nm: name, Pre: pre, Post: post, OnPre: onPre}
	sy.byPre = make([][]int, pre.N)
	return sy
}

// Name returns the name of the synapses
func (sy *Synapses) Name() string {
	return sy.Nm
}

// Connect adds a synapse from pre unit i to post unit j with weight w.
func (sy *Synapses) Connect(i, j int, w float64) error {
	if i < 0 || i >= sy.Pre.N || j < 0 || j >= sy.Post.N {
		return fmt.Errorf("snn: synapses %q: connection %d -> %d out of range", sy.Nm, i, j)
	}
	k := len(sy.wt)
	sy.pre = append(sy.pre, i)
	sy.post = append(sy.post, j)
	sy.wt = append(sy.wt, w)
	sy.byPre[i] = append(sy.byPre[i], k)
	return nil
}

// ConnectFunc connects each pre unit i to the post units returned by targets,
// with weights given by weight.
func (sy *Synapses) ConnectFunc(targets func(i int) []int, weight func(i, j int) float64) error {
	for i := 0; i < sy.Pre.N; i++ {
		for _, j := range targets(i) {
			if err := sy.Connect(i, j, weight(i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// N returns the number of synapses
func (sy *Synapses) N() int {
	return len(sy.wt)
}

// Weight returns the weight of synapse k
func (sy *Synapses) Weight(k int) float64 {
	return sy.wt[k]
}

// SetWeight sets the weight of synapse k
func (sy *Synapses) SetWeight(k int, w float64) {
	sy.wt[k] = w
}

// Endpoints returns the pre and post units of synapse k
func (sy *Synapses) Endpoints(k int) (i, j int) {
	return sy.pre[k], sy.post[k]
}

// delaySteps is the delay rounded to whole steps.
func (sy *Synapses) delaySteps(dt float64) int64 {
	if sy.Delay <= 0 {
		return 0
	}
	return int64(math.Round(sy.Delay / dt))
}

// propagate applies this step's spikes of the pre group, and any delayed
// spikes due at step, to the post group.
func (sy *Synapses) propagate(step int64, dt float64) {
	if sy.OnPre == nil {
		return
	}
	ds := sy.delaySteps(dt)
	if ds == 0 {
		for _, i := range sy.Pre.spiked {
			for _, k := range sy.byPre[i] {
				sy.OnPre(sy.Post, sy.post[k], sy.wt[k])
			}
		}
		return
	}
	if len(sy.Pre.spiked) > 0 {
		if sy.pending == nil {
			sy.pending = make(map[int64][]int)
		}
		due := step + ds
		for _, i := range sy.Pre.spiked {
			sy.pending[due] = append(sy.pending[due], sy.byPre[i]...)
		}
	}
	if ks, ok := sy.pending[step]; ok {
		for _, k := range ks {
			sy.OnPre(sy.Post, sy.post[k], sy.wt[k])
		}
		delete(sy.pending, step)
	}
}
