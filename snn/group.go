// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"math"
)

// Equations defines the differential equations of the units in a Group.
// Derivatives must write dy/dt for every state variable of unit i into dydt,
// given the state y at time t. Variables with no dynamics write 0.
type Equations interface {
	Derivatives(t float64, i int, y, dydt []float64)
}

// EquationsFunc adapts an ordinary function to the Equations interface
type EquationsFunc func(t float64, i int, y, dydt []float64)

func (f EquationsFunc) Derivatives(t float64, i int, y, dydt []float64) {
	f(t, i, y, dydt)
}

// ExactStepper is implemented by Equations that have a closed-form solution
// over one time step, and is required for groups using the Exact method.
type ExactStepper interface {
	StepExact(t, dt float64, i int, y []float64)
}

// Noise supplies the diffusion terms of stochastic equations.
// Sigma writes the noise amplitude of each state variable of unit i into sigma;
// the term sigma * sqrt(dt) * N(0,1) is added after each deterministic step.
type Noise interface {
	Sigma(t float64, i int, y, sigma []float64)
}

// NoiseFunc adapts an ordinary function to the Noise interface
type NoiseFunc func(t float64, i int, y, sigma []float64)

func (f NoiseFunc) Sigma(t float64, i int, y, sigma []float64) {
	f(t, i, y, sigma)
}

// noSpike marks a unit that has not spiked yet.
const noSpike = math.MinInt64

// Group is a population of N units sharing the same state variables and equations.
type Group struct {
	Nm         string                        `desc:"name of the group, unique within a network"`
	N          int                           `desc:"number of units"`
	Vars       []string                      `desc:"names of the per-unit state variables"`
	Eqs        Equations                     `view:"-" desc:"dynamics of the state variables"`
	Method     Method                        `desc:"integration method"`
	Noise      Noise                         `view:"-" desc:"optional stochastic terms, integrated with Euler-Maruyama"`
	Threshold  func(i int, y []float64) bool `view:"-" desc:"spike condition, evaluated after each step -- nil for groups that never spike"`
	Reset      func(i int, y []float64)      `view:"-" desc:"applied to a unit right after it spikes"`
	Refractory float64                       `desc:"time after a spike during which the threshold is not evaluated"`

	state     [][]float64
	varIdx    map[string]int
	lastSpike []int64
	dt        float64
	spiked    []int
	stp       *stepper
	sigma     []float64
}

// NewGroup returns a new group of n units with given state variables and equations,
// integrated with Euler by default.
func NewGroup(name string, n int, vars []string, eqs Equations) *Group {
	g := &Group{Nm: name, N: n, Vars: vars, Eqs: eqs}
	g.varIdx = make(map[string]int, len(vars))
	for i, v := range vars {
		g.varIdx[v] = i
	}
	g.state = make([][]float64, n)
	g.lastSpike = make([]int64, n)
	for i := range g.state {
		g.state[i] = make([]float64, len(vars))
		g.lastSpike[i] = noSpike
	}
	return g
}

// Name returns the name of the group
func (g *Group) Name() string {
	return g.Nm
}

// VarIdx returns the index of the named state variable
func (g *Group) VarIdx(name string) (int, error) {
	vi, ok := g.varIdx[name]
	if !ok {
		return -1, fmt.Errorf("snn: group %q has no variable %q", g.Nm, name)
	}
	return vi, nil
}

// Value returns the named variable of unit i -- panics if the variable does not exist.
func (g *Group) Value(name string, i int) float64 {
	vi, err := g.VarIdx(name)
	if err != nil {
		panic(err)
	}
	return g.state[i][vi]
}

// SetValue sets the named variable of unit i -- panics if the variable does not exist.
func (g *Group) SetValue(name string, i int, val float64) {
	vi, err := g.VarIdx(name)
	if err != nil {
		panic(err)
	}
	g.state[i][vi] = val
}

// SetValues sets the named variable of every unit from fun.
func (g *Group) SetValues(name string, fun func(i int) float64) error {
	vi, err := g.VarIdx(name)
	if err != nil {
		return err
	}
	for i := range g.state {
		g.state[i][vi] = fun(i)
	}
	return nil
}

// Values returns a copy of the named variable across all units.
func (g *Group) Values(name string) ([]float64, error) {
	vi, err := g.VarIdx(name)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, g.N)
	for i := range g.state {
		vals[i] = g.state[i][vi]
	}
	return vals, nil
}

// State returns the state vector of unit i.  The slice is owned by the group.
func (g *Group) State(i int) []float64 {
	return g.state[i]
}

// Spiked returns the units that spiked during the last step.
// The slice is reused on every step.
func (g *Group) Spiked() []int {
	return g.spiked
}

// LastSpike returns the time of the last spike of unit i, and false if it never spiked.
func (g *Group) LastSpike(i int) (float64, bool) {
	ls := g.lastSpike[i]
	if ls == noSpike {
		return 0, false
	}
	return float64(ls) * g.dt, true
}

// Validate checks that the group is well formed for its integration method.
func (g *Group) Validate() error {
	switch {
	case g.N <= 0:
		return fmt.Errorf("snn: group %q has no units", g.Nm)
	case len(g.Vars) == 0:
		return fmt.Errorf("snn: group %q has no state variables", g.Nm)
	case g.Eqs == nil:
		return fmt.Errorf("snn: group %q has no equations", g.Nm)
	case g.Method < 0 || g.Method >= MethodN:
		return fmt.Errorf("snn: group %q: invalid method %v", g.Nm, g.Method)
	}
	if g.Method == Exact {
		if _, ok := g.Eqs.(ExactStepper); !ok {
			return fmt.Errorf("snn: group %q: equations have no exact solution", g.Nm)
		}
	}
	return nil
}

// integrate advances all units by one step from time t.
func (g *Group) integrate(t, dt float64, norm func() float64) {
	nv := len(g.Vars)
	if g.Method == Exact {
		ex := g.Eqs.(ExactStepper)
		for i, y := range g.state {
			ex.StepExact(t, dt, i, y)
		}
	} else {
		if g.stp == nil || g.stp.nvars != nv || g.stp.tab != tableaux[g.Method] {
			g.stp = newStepper(tableaux[g.Method], nv)
		}
		for i, y := range g.state {
			g.stp.step(g.Eqs, t, dt, i, y)
		}
	}
	if g.Noise == nil {
		return
	}
	if len(g.sigma) != nv {
		g.sigma = make([]float64, nv)
	}
	sdt := math.Sqrt(dt)
	for i, y := range g.state {
		for v := range g.sigma {
			g.sigma[v] = 0
		}
		g.Noise.Sigma(t, i, y, g.sigma)
		for v, s := range g.sigma {
			if s != 0 {
				y[v] += s * sdt * norm()
			}
		}
	}
}

// refractorySteps is the refractory period in whole time steps
func (g *Group) refractorySteps(dt float64) int64 {
	return int64(math.Round(g.Refractory / dt))
}

// threshold records the units crossing threshold at given step.
// A unit is refractory until refractorySteps whole steps have elapsed.
func (g *Group) threshold(step int64, dt float64) {
	g.dt = dt
	g.spiked = g.spiked[:0]
	if g.Threshold == nil {
		return
	}
	refr := g.refractorySteps(dt)
	for i, y := range g.state {
		if g.lastSpike[i] != noSpike && step-g.lastSpike[i] < refr {
			continue
		}
		if g.Threshold(i, y) {
			g.spiked = append(g.spiked, i)
			g.lastSpike[i] = step
		}
	}
}

// reset applies Reset to the units that spiked in this step
func (g *Group) reset() {
	if g.Reset == nil {
		return
	}
	for _, i := range g.spiked {
		g.Reset(i, g.state[i])
	}
}
