// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"sort"
)

// GroupState is the stored state of one group
type GroupState struct {
	State     [][]float64 `json:"state"`
	LastSpike []int64     `json:"last_spike_step"`
}

// SynapseState is the stored state of one set of synapses
type SynapseState struct {
	Weights []float64       `json:"weights"`
	Pending map[int64][]int `json:"pending,omitempty"`
}

// Snapshot is the complete stored state of a network.
type Snapshot struct {
	Step      int64                   `json:"step"`
	Seed      int64                   `json:"seed"`
	Groups    map[string]GroupState   `json:"groups"`
	Synapses  map[string]SynapseState `json:"synapses"`
	SpikeMons map[string]int          `json:"spike_mons"`
	StateMons map[string]int          `json:"state_mons"`
}

// Store saves the current state of the network under name, replacing any
// previous snapshot of that name.  The random generator is reseeded from a
// fresh seed that is kept with the snapshot, so that Restore can replay the
// same random stream.
func (net *Network) Store(name string) {
	seed := net.rng.Int63()
	net.rng.Seed(seed)
	snap := net.capture()
	snap.Seed = seed
	net.snapMu.Lock()
	net.snaps[name] = snap
	net.snapMu.Unlock()
}

// Restore returns the network to the state saved under name.
// If restoreRandom is true the random generator is returned to its stored state too.
// It returns ErrNoSnapshot for unknown names and ErrRunning during a run.
func (net *Network) Restore(name string, restoreRandom bool) error {
	if net.running.Load() {
		return ErrRunning
	}
	net.snapMu.Lock()
	snap, ok := net.snaps[name]
	net.snapMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSnapshot, name)
	}
	if err := net.checkSnapshot(snap); err != nil {
		return err
	}
	net.apply(snap)
	if restoreRandom {
		net.rng.Seed(snap.Seed)
	}
	return nil
}

// Snapshot returns a copy of the snapshot stored under name
func (net *Network) Snapshot(name string) (*Snapshot, bool) {
	net.snapMu.Lock()
	defer net.snapMu.Unlock()
	snap, ok := net.snaps[name]
	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

// Load stores a copy of snap under name, e.g. after reading it from disk.
// The snapshot must match the structure of the network.
func (net *Network) Load(name string, snap *Snapshot) error {
	if err := net.checkSnapshot(snap); err != nil {
		return err
	}
	net.snapMu.Lock()
	net.snaps[name] = snap.Clone()
	net.snapMu.Unlock()
	return nil
}

// SnapshotNames returns the sorted names of the stored snapshots
func (net *Network) SnapshotNames() []string {
	net.snapMu.Lock()
	defer net.snapMu.Unlock()
	nms := make([]string, 0, len(net.snaps))
	for nm := range net.snaps {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}

// Clone returns a deep copy of the snapshot
func (sn *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{Step: sn.Step, Seed: sn.Seed}
	cp.Groups = make(map[string]GroupState, len(sn.Groups))
	for nm, gs := range sn.Groups {
		cp.Groups[nm] = GroupState{State: copyRows(gs.State), LastSpike: append([]int64(nil), gs.LastSpike...)}
	}
	cp.Synapses = make(map[string]SynapseState, len(sn.Synapses))
	for nm, ss := range sn.Synapses {
		cp.Synapses[nm] = SynapseState{Weights: append([]float64(nil), ss.Weights...), Pending: copyPending(ss.Pending)}
	}
	cp.SpikeMons = make(map[string]int, len(sn.SpikeMons))
	for nm, n := range sn.SpikeMons {
		cp.SpikeMons[nm] = n
	}
	cp.StateMons = make(map[string]int, len(sn.StateMons))
	for nm, n := range sn.StateMons {
		cp.StateMons[nm] = n
	}
	return cp
}

func (net *Network) capture() *Snapshot {
	sn := &Snapshot{Step: net.step.Load()}
	sn.Groups = make(map[string]GroupState, len(net.Groups))
	for _, g := range net.Groups {
		sn.Groups[g.Nm] = GroupState{State: copyRows(g.state), LastSpike: append([]int64(nil), g.lastSpike...)}
	}
	sn.Synapses = make(map[string]SynapseState, len(net.Synapses))
	for _, sy := range net.Synapses {
		sn.Synapses[sy.Nm] = SynapseState{Weights: append([]float64(nil), sy.wt...), Pending: copyPending(sy.pending)}
	}
	sn.SpikeMons = make(map[string]int, len(net.SpikeMons))
	for _, sm := range net.SpikeMons {
		sn.SpikeMons[sm.Nm] = sm.Len()
	}
	sn.StateMons = make(map[string]int, len(net.StateMons))
	for _, sm := range net.StateMons {
		sn.StateMons[sm.Nm] = sm.Len()
	}
	return sn
}

func (net *Network) checkSnapshot(sn *Snapshot) error {
	for _, g := range net.Groups {
		gs, ok := sn.Groups[g.Nm]
		if !ok || len(gs.State) != g.N || len(gs.LastSpike) != g.N {
			return fmt.Errorf("snn: snapshot does not match group %q", g.Nm)
		}
		for _, y := range gs.State {
			if len(y) != len(g.Vars) {
				return fmt.Errorf("snn: snapshot does not match variables of group %q", g.Nm)
			}
		}
	}
	for _, sy := range net.Synapses {
		ss, ok := sn.Synapses[sy.Nm]
		if !ok || len(ss.Weights) != len(sy.wt) {
			return fmt.Errorf("snn: snapshot does not match synapses %q", sy.Nm)
		}
	}
	return nil
}

func (net *Network) apply(sn *Snapshot) {
	net.step.Store(sn.Step)
	for _, g := range net.Groups {
		gs := sn.Groups[g.Nm]
		for i, y := range gs.State {
			copy(g.state[i], y)
		}
		copy(g.lastSpike, gs.LastSpike)
		g.spiked = g.spiked[:0]
	}
	for _, sy := range net.Synapses {
		ss := sn.Synapses[sy.Nm]
		copy(sy.wt, ss.Weights)
		sy.pending = copyPending(ss.Pending)
	}
	for _, sm := range net.SpikeMons {
		if n, ok := sn.SpikeMons[sm.Nm]; ok {
			sm.truncate(n)
		}
	}
	for _, sm := range net.StateMons {
		if n, ok := sn.StateMons[sm.Nm]; ok {
			sm.truncate(n)
		}
	}
}

func copyRows(rows [][]float64) [][]float64 {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return cp
}

func copyPending(pd map[int64][]int) map[int64][]int {
	if len(pd) == 0 {
		return nil
	}
	cp := make(map[int64][]int, len(pd))
	for st, ks := range pd {
		cp[st] = append([]int(nil), ks...)
	}
	return cp
}
