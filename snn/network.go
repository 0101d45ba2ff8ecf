// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
)

var (
	// ErrStopped is returned by Run when it ended early because of Stop.
	ErrStopped = errors.New("snn: run stopped")

	// ErrRunning is returned when an operation needs the network to be idle.
	ErrRunning = errors.New("snn: network is running")

	// ErrNoSnapshot is returned when restoring a snapshot that was never stored.
	ErrNoSnapshot = errors.New("snn: no such snapshot")
)

// Network is a clock-driven simulation of groups, synapses, monitors and operations.
// Each step of Dt runs, in order: due network operations, state monitors,
// integration of all groups, threshold detection, synaptic propagation,
// resets and spike monitors.
type Network struct {
	Nm        string              `desc:"name of the network"`
	Dt        float64             `desc:"integration time step"`
	Seed      int64               `desc:"initial random seed"`
	Groups    []*Group            `desc:"neuron groups, integrated in order"`
	Synapses  []*Synapses         `desc:"synapses, propagated in order"`
	SpikeMons []*SpikeMonitor     `desc:"spike monitors"`
	StateMons []*StateMonitor     `desc:"state monitors"`
	Ops       []*NetworkOperation `desc:"network operations, called in order"`

	step    atomic.Int64
	running atomic.Bool
	stopReq atomic.Bool
	rng     *rand.Rand
	names   map[string]bool
	snapMu  sync.Mutex
	snaps   map[string]*Snapshot
}

// NewNetwork returns an empty network with time step dt, seeded with seed.
func NewNetwork(name string, dt float64, seed int64) *Network {
	return &Network{
		Nm:    name,
		Dt:    dt,
		Seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
		names: make(map[string]bool),
		snaps: make(map[string]*Snapshot),
	}
}

// Name returns the name of the network
func (net *Network) Name() string {
	return net.Nm
}

// Add adds groups, synapses, monitors and operations to the network.
// Names must be unique across all objects.
func (net *Network) Add(objs ...interface{}) error {
	if net.running.Load() {
		return ErrRunning
	}
	for _, obj := range objs {
		var nm string
		switch o := obj.(type) {
		case *Group:
			nm = o.Nm
		case *Synapses:
			nm = o.Nm
		case *SpikeMonitor:
			nm = o.Nm
		case *StateMonitor:
			nm = o.Nm
		case *NetworkOperation:
			nm = o.Nm
		default:
			return fmt.Errorf("snn: cannot add %T to network %q", obj, net.Nm)
		}
		if net.names[nm] {
			return fmt.Errorf("snn: network %q already has an object named %q", net.Nm, nm)
		}
		switch o := obj.(type) {
		case *Group:
			if err := o.Validate(); err != nil {
				return err
			}
			o.dt = net.Dt
			net.Groups = append(net.Groups, o)
		case *Synapses:
			net.Synapses = append(net.Synapses, o)
		case *SpikeMonitor:
			net.SpikeMons = append(net.SpikeMons, o)
		case *StateMonitor:
			net.StateMons = append(net.StateMons, o)
		case *NetworkOperation:
			if o.Fun == nil {
				return fmt.Errorf("snn: operation %q has no function", o.Nm)
			}
			net.Ops = append(net.Ops, o)
		}
		net.names[nm] = true
	}
	return nil
}

// Group returns the named group, nil if not found
func (net *Network) Group(name string) *Group {
	for _, g := range net.Groups {
		if g.Nm == name {
			return g
		}
	}
	return nil
}

// SpikeMonitor returns the named spike monitor, nil if not found
func (net *Network) SpikeMonitor(name string) *SpikeMonitor {
	for _, sm := range net.SpikeMons {
		if sm.Nm == name {
			return sm
		}
	}
	return nil
}

// StateMonitor returns the named state monitor, nil if not found
func (net *Network) StateMonitor(name string) *StateMonitor {
	for _, sm := range net.StateMons {
		if sm.Nm == name {
			return sm
		}
	}
	return nil
}

// Steps returns the number of steps simulated so far
func (net *Network) Steps() int64 {
	return net.step.Load()
}

// Time returns the current simulation time.  It is safe to call while running.
func (net *Network) Time() float64 {
	return float64(net.step.Load()) * net.Dt
}

// Rand returns the random source of the network, which is only safe to use
// from network operations while running.
func (net *Network) Rand() *rand.Rand {
	return net.rng
}

// Running reports whether Run is in progress
func (net *Network) Running() bool {
	return net.running.Load()
}

// Stop requests the current run to end at the end of the current step.
// It is safe to call from any goroutine, including network operations.
func (net *Network) Stop() {
	net.stopReq.Store(true)
}

// Run advances the network by duration, continuing from the current time.
// It returns an error wrapping ErrStopped when Stop ended the run early,
// the context error if ctx is done, and ErrRunning if another Run is in progress.
func (net *Network) Run(ctx context.Context, duration float64) error {
	if duration <= 0 {
		return nil
	}
	if net.Dt <= 0 {
		return fmt.Errorf("snn: network %q: invalid time step %g", net.Nm, net.Dt)
	}
	if !net.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer net.running.Store(false)
	net.stopReq.Store(false)

	nsteps := int64(math.Round(duration / net.Dt))
	for s := int64(0); s < nsteps; s++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := net.stepOnce(); err != nil {
			return err
		}
		if net.stopReq.Load() {
			return fmt.Errorf("%w at t=%g", ErrStopped, net.Time())
		}
	}
	return nil
}

// stepOnce advances the network by one time step.
func (net *Network) stepOnce() error {
	st := net.step.Load()
	t := float64(st) * net.Dt
	for _, op := range net.Ops {
		if !op.due(st, net.Dt) {
			continue
		}
		if err := op.Fun(net, t); err != nil {
			return fmt.Errorf("snn: operation %q at t=%g: %w", op.Nm, t, err)
		}
	}
	for _, sm := range net.StateMons {
		sm.record(st, t)
	}
	for _, g := range net.Groups {
		g.integrate(t, net.Dt, net.rng.NormFloat64)
	}
	for _, g := range net.Groups {
		g.threshold(st, net.Dt)
	}
	for _, sy := range net.Synapses {
		sy.propagate(st, net.Dt)
	}
	for _, g := range net.Groups {
		g.reset()
	}
	for _, sm := range net.SpikeMons {
		sm.record(t)
	}
	net.step.Store(st + 1)
	return nil
}
