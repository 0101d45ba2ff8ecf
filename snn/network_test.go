// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"errors"
	"math"
	"testing"
)

const difTol = 1.0e-8

// decay is dv/dt = -v / tau with a closed-form step
type decay struct {
	tau float64
}

func (d *decay) Derivatives(t float64, i int, y, dydt []float64) {
	dydt[0] = -y[0] / d.tau
}

func (d *decay) StepExact(t, dt float64, i int, y []float64) {
	y[0] *= math.Exp(-dt / d.tau)
}

func decayNet(t *testing.T, meth Method) (*Network, *Group) {
	net := NewNetwork("decay", 0.1, 1)
	g := NewGroup("g", 1, []string{"v"}, &decay{tau: 10})
	g.Method = meth
	g.SetValue("v", 0, 1)
	if err := net.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return net, g
}

func TestIntegrationMethods(t *testing.T) {
	want := math.Exp(-1)
	tests := []struct {
		meth Method
		tol  float64
	}{
		{Euler, 1.0e-2},
		{Heun, 1.0e-4},
		{RK4, difTol},
		{Exact, difTol},
	}
	for _, tt := range tests {
		net, g := decayNet(t, tt.meth)
		if err := net.Run(context.Background(), 10); err != nil {
			t.Fatalf("%v: Run() error = %v", tt.meth, err)
		}
		got := g.Value("v", 0)
		if dif := math.Abs(got - want); dif > tt.tol {
			t.Errorf("%v: v = %g, want %g (err %g > %g)", tt.meth, got, want, dif, tt.tol)
		}
		if net.Steps() != 100 {
			t.Errorf("%v: steps = %d, want 100", tt.meth, net.Steps())
		}
	}
}

func TestExactRequiresStepper(t *testing.T) {
	net := NewNetwork("net", 0.1, 1)
	g := NewGroup("g", 1, []string{"v"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {}))
	g.Method = Exact
	if err := net.Add(g); err == nil {
		t.Errorf("Add() of exact group without closed form should fail")
	}
}

func TestDuplicateNames(t *testing.T) {
	net := NewNetwork("net", 0.1, 1)
	eqs := EquationsFunc(func(t float64, i int, y, dydt []float64) {})
	if err := net.Add(NewGroup("g", 1, []string{"v"}, eqs)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Add(NewGroup("g", 1, []string{"v"}, eqs)); err == nil {
		t.Errorf("Add() of duplicate name should fail")
	}
}

// drivenGroup integrates dv/dt = 0.3 and spikes when v > 1, resetting to 0
func drivenGroup(name string) *Group {
	g := NewGroup(name, 1, []string{"v"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {
		dydt[0] = 0.3
	}))
	g.Threshold = func(i int, y []float64) bool { return y[0] > 1 }
	g.Reset = func(i int, y []float64) { y[0] = 0 }
	return g
}

func TestThresholdRefractory(t *testing.T) {
	tests := []struct {
		refr  float64
		times []float64
	}{
		{0, []float64{3, 7, 11, 15, 19}},
		{5, []float64{3, 8, 13, 18}},
	}
	for _, tt := range tests {
		net := NewNetwork("net", 1, 1)
		g := drivenGroup("g")
		g.Refractory = tt.refr
		sm := NewSpikeMonitor("spikes", g)
		if err := net.Add(g, sm); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if err := net.Run(context.Background(), 20); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if sm.NSpikes() != len(tt.times) {
			t.Fatalf("refractory %g: %d spikes, want %d: %v", tt.refr, sm.NSpikes(), len(tt.times), sm.T)
		}
		for i, st := range tt.times {
			if math.Abs(sm.T[i]-st) > difTol {
				t.Errorf("refractory %g: spike %d at %g, want %g", tt.refr, i, sm.T[i], st)
			}
		}
		if sm.Count(0) != len(tt.times) {
			t.Errorf("Count(0) = %d, want %d", sm.Count(0), len(tt.times))
		}
		dt := sm.Table(1)
		if dt.Rows != len(tt.times)-1 {
			t.Errorf("Table(1) rows = %d, want %d", dt.Rows, len(tt.times)-1)
		}
		if dt.CellFloat("T", 0) != sm.T[1] {
			t.Errorf("Table(1) first T = %g, want %g", dt.CellFloat("T", 0), sm.T[1])
		}
	}
}

func TestRefractoryFineStep(t *testing.T) {
	net := NewNetwork("net", 0.1, 1)
	g := NewGroup("g", 1, []string{"v"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {
		dydt[0] = 100
	}))
	g.Threshold = func(i int, y []float64) bool { return y[0] > 1 }
	g.Reset = func(i int, y []float64) { y[0] = 0 }
	g.Refractory = 5
	sm := NewSpikeMonitor("spikes", g)
	if err := net.Add(g, sm); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Run(context.Background(), 30); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sm.NSpikes() != 6 {
		t.Fatalf("%d spikes, want 6: %v", sm.NSpikes(), sm.T)
	}
	for i := 1; i < sm.NSpikes(); i++ {
		isi := sm.T[i] - sm.T[i-1]
		if math.Abs(isi-5) > difTol {
			t.Errorf("ISI %d = %g, want 5", i, isi)
		}
	}
	ls, ok := g.LastSpike(0)
	if !ok || math.Abs(ls-25) > difTol {
		t.Errorf("LastSpike(0) = %g, %v, want 25, true", ls, ok)
	}
}

func TestSynapseDelay(t *testing.T) {
	tests := []struct {
		delay float64
		want  float64
	}{
		{0, 5 * 0.5},
		{2, 4 * 0.5},
	}
	for _, tt := range tests {
		net := NewNetwork("net", 1, 1)
		pre := drivenGroup("pre")
		post := NewGroup("post", 2, []string{"v"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {}))
		sy := NewSynapses("syn", pre, post, func(post *Group, j int, w float64) {
			post.State(j)[0] += w
		})
		sy.Delay = tt.delay
		if err := sy.Connect(0, 1, 0.5); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if err := sy.Connect(0, 2, 0.5); err == nil {
			t.Errorf("Connect() to unit out of range should fail")
		}
		if err := net.Add(pre, post, sy); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if err := net.Run(context.Background(), 20); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := post.Value("v", 1); math.Abs(got-tt.want) > difTol {
			t.Errorf("delay %g: post v = %g, want %g", tt.delay, got, tt.want)
		}
		if got := post.Value("v", 0); got != 0 {
			t.Errorf("delay %g: unconnected post v = %g, want 0", tt.delay, got)
		}
	}
}

func TestOperationInterval(t *testing.T) {
	net, _ := decayNet(t, Euler)
	var times []float64
	op := NewNetworkOperation("op", 1, func(n *Network, tm float64) error {
		times = append(times, tm)
		return nil
	})
	if err := net.Add(op); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Run(context.Background(), 5); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(times) != 5 {
		t.Fatalf("operation called %d times, want 5: %v", len(times), times)
	}
	for i, tm := range times {
		if math.Abs(tm-float64(i)) > difTol {
			t.Errorf("call %d at t=%g, want %d", i, tm, i)
		}
	}
}

func TestStopFromOperation(t *testing.T) {
	net, _ := decayNet(t, Euler)
	op := NewNetworkOperation("stopper", 1, func(n *Network, tm float64) error {
		if tm >= 2-difTol {
			n.Stop()
		}
		return nil
	})
	if err := net.Add(op); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	err := net.Run(context.Background(), 100)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("Run() error = %v, want ErrStopped", err)
	}
	if net.Steps() != 21 {
		t.Errorf("stopped after %d steps, want 21", net.Steps())
	}
	// a new run clears the stop request
	op.Fun = func(n *Network, tm float64) error { return nil }
	if err := net.Run(context.Background(), 1); err != nil {
		t.Errorf("Run() after stop error = %v", err)
	}
}

func TestOperationError(t *testing.T) {
	net, _ := decayNet(t, Euler)
	errBoom := errors.New("boom")
	if err := net.Add(NewNetworkOperation("bad", 0, func(n *Network, tm float64) error { return errBoom })); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Run(context.Background(), 1); !errors.Is(err, errBoom) {
		t.Errorf("Run() error = %v, want %v", err, errBoom)
	}
}

func TestRunEdgeCases(t *testing.T) {
	net, _ := decayNet(t, Euler)
	if err := net.Run(context.Background(), 0); err != nil {
		t.Errorf("Run(0) error = %v", err)
	}
	if err := net.Run(context.Background(), -1); err != nil {
		t.Errorf("Run(-1) error = %v", err)
	}
	if net.Steps() != 0 {
		t.Errorf("no-op runs advanced the clock to step %d", net.Steps())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := net.Run(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() with cancelled context error = %v", err)
	}

	var inner error
	if err := net.Add(NewNetworkOperation("reenter", 0, func(n *Network, tm float64) error {
		inner = n.Run(context.Background(), 1)
		return nil
	})); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Run(context.Background(), 0.1); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !errors.Is(inner, ErrRunning) {
		t.Errorf("nested Run() error = %v, want ErrRunning", inner)
	}

	bad := NewNetwork("bad", 0, 1)
	if err := bad.Run(context.Background(), 1); err == nil {
		t.Errorf("Run() with zero time step should fail")
	}
}

// noisyNet is an Ornstein-Uhlenbeck process recorded every step
func noisyNet(t *testing.T) (*Network, *Group, *StateMonitor) {
	net := NewNetwork("ou", 0.1, 42)
	g := NewGroup("ou", 1, []string{"x"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {
		dydt[0] = -y[0] / 10
	}))
	g.Noise = NoiseFunc(func(t float64, i int, y, sigma []float64) {
		sigma[0] = 1
	})
	sm, err := NewStateMonitor("x", g, []string{"x"})
	if err != nil {
		t.Fatalf("NewStateMonitor() error = %v", err)
	}
	if err := net.Add(g, sm); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return net, g, sm
}

func TestStoreRestore(t *testing.T) {
	net, g, sm := noisyNet(t)
	net.Store("init")
	if err := net.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	first := append([]float64(nil), sm.Series("x")...)
	last := g.Value("x", 0)

	if err := net.Restore("init", true); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if net.Time() != 0 || sm.Len() != 0 || g.Value("x", 0) != 0 {
		t.Fatalf("Restore() did not reset: t=%g rows=%d x=%g", net.Time(), sm.Len(), g.Value("x", 0))
	}
	if err := net.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second := sm.Series("x")
	if len(second) != len(first) {
		t.Fatalf("replay recorded %d samples, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay differs at sample %d: %g != %g", i, second[i], first[i])
		}
	}

	if err := net.Restore("init", false); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if err := net.Run(context.Background(), 10); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if g.Value("x", 0) == last {
		t.Errorf("run without restored random state repeated the same trajectory")
	}

	if err := net.Restore("missing", true); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Restore() of unknown name error = %v, want ErrNoSnapshot", err)
	}
}

func TestSnapshotLoad(t *testing.T) {
	net, _, _ := noisyNet(t)
	net.Store("a")
	snap, ok := net.Snapshot("a")
	if !ok {
		t.Fatalf("Snapshot() missing stored snapshot")
	}
	other, g, _ := noisyNet(t)
	if err := other.Load("b", snap); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	g.SetValue("x", 0, 3)
	if err := other.Restore("b", true); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if g.Value("x", 0) != 0 {
		t.Errorf("restored x = %g, want 0", g.Value("x", 0))
	}
	if nms := other.SnapshotNames(); len(nms) != 1 || nms[0] != "b" {
		t.Errorf("SnapshotNames() = %v", nms)
	}

	small, _ := decayNet(t, Euler)
	if err := small.Load("bad", snap); err == nil {
		t.Errorf("Load() of mismatched snapshot should fail")
	}
}

func TestStateMonitorTable(t *testing.T) {
	net := NewNetwork("net", 1, 1)
	g := NewGroup("g", 2, []string{"a", "b"}, EquationsFunc(func(t float64, i int, y, dydt []float64) {
		dydt[0] = 1
		dydt[1] = float64(i)
	}))
	sm, err := NewStateMonitor("mon", g, []string{"a", "b"})
	if err != nil {
		t.Fatalf("NewStateMonitor() error = %v", err)
	}
	sm.Every = 2
	if err := net.Add(g, sm); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := net.Run(context.Background(), 6); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sm.Len() != 3 {
		t.Fatalf("recorded %d samples, want 3", sm.Len())
	}
	dt := sm.Table(0)
	if dt.NumCols() != 5 {
		t.Fatalf("table has %d columns, want 5", dt.NumCols())
	}
	if got := dt.CellFloat("b[1]", 2); math.Abs(got-4) > difTol {
		t.Errorf("b[1] at row 2 = %g, want 4", got)
	}
	if got := dt.CellFloat("T", 1); math.Abs(got-2) > difTol {
		t.Errorf("T at row 1 = %g, want 2", got)
	}
	if _, err := NewStateMonitor("bad", g, []string{"c"}); err == nil {
		t.Errorf("NewStateMonitor() of unknown variable should fail")
	}
}

func TestMethodString(t *testing.T) {
	if RK4.String() != "RK4" {
		t.Errorf("RK4.String() = %q", RK4.String())
	}
	var m Method
	if err := m.FromString("Exact"); err != nil || m != Exact {
		t.Errorf("FromString(Exact) = %v, %v", m, err)
	}
}
