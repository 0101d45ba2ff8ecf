// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"context"
	"errors"
	"sync"

	"github.com/ccnlab/eyetrack/snn"
	"github.com/goki/ki/kit"
)

// RunState is the state of a Controller
type RunState int32

//go:generate stringer -type=RunState

var KiT_RunState = kit.Enums.AddEnum(RunStateN, kit.NotBitFlag, nil)

func (ev RunState) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *RunState) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Idle means no run is in progress
	Idle RunState = iota

	// Running means a background run is in progress
	Running

	// Stopping means a stop was requested and the run ends at the next relay call
	Stopping

	RunStateN
)

// ErrBusy is returned by Start when a run is already in progress
var ErrBusy = errors.New("driver: a run is already in progress")

// Controller starts and stops background runs of an Engine, one at a time.
type Controller struct {
	Duration      float64           `desc:"simulation time of each run"`
	Snapshot      string            `desc:"snapshot restored at the start of each run"`
	RestoreRandom bool              `desc:"also restore the random state, so that runs repeat exactly"`
	Engine        Engine            `view:"-" desc:"the engine"`
	Controls      *Controls         `view:"-" desc:"controls holding the stop request"`
	Relay         *Relay            `view:"-" desc:"relay flushed at the end of each run -- nil for none"`
	OnStateChange func(st RunState) `view:"-" desc:"called on every state change, in order, from the goroutine making the change -- must not call back into the controller's Toggle, Start or Stop"`

	notifyMu sync.Mutex
	notified RunState

	mu      sync.Mutex
	state   RunState
	done    chan struct{}
	cancel  context.CancelFunc
	lastErr error
	runs    int
}

// NewController returns an idle controller running eng for duration from the snapshot snap.
func NewController(eng Engine, ctrls *Controls, relay *Relay, snap string, duration float64) *Controller {
	return &Controller{Duration: duration, Snapshot: snap, Engine: eng, Controls: ctrls, Relay: relay}
}

// State returns the current state
func (ct *Controller) State() RunState {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.state
}

// IsRunning reports whether a run is in progress, including one that is stopping
func (ct *Controller) IsRunning() bool {
	return ct.State() != Idle
}

// LastErr returns the error of the last completed run, nil if it ended normally or was stopped
func (ct *Controller) LastErr() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.lastErr
}

// Runs returns the number of completed runs
func (ct *Controller) Runs() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.runs
}

// Done returns a channel closed when the current run ends, already closed when idle.
func (ct *Controller) Done() <-chan struct{} {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return ct.done
}

// Wait waits for the current run to end and returns its error
func (ct *Controller) Wait() error {
	<-ct.Done()
	return ct.LastErr()
}

// Toggle starts a run when idle, and requests a stop when running.
// It does nothing while a stop is pending.
func (ct *Controller) Toggle(ctx context.Context) {
	ct.mu.Lock()
	switch ct.state {
	case Idle:
		ct.startLocked(ctx)
	case Running:
		ct.stopLocked()
	default:
		ct.mu.Unlock()
		return
	}
	ct.mu.Unlock()
	ct.notify()
}

// Start starts a background run, returning ErrBusy if one is in progress
func (ct *Controller) Start(ctx context.Context) error {
	ct.mu.Lock()
	if ct.state != Idle {
		ct.mu.Unlock()
		return ErrBusy
	}
	ct.startLocked(ctx)
	ct.mu.Unlock()
	ct.notify()
	return nil
}

// Stop requests the current run to stop at the next relay call.
func (ct *Controller) Stop() {
	ct.mu.Lock()
	if ct.state != Running {
		ct.mu.Unlock()
		return
	}
	ct.stopLocked()
	ct.mu.Unlock()
	ct.notify()
}

// Cancel cancels the context of the current run, which ends at the next step,
// and waits for it to end.
func (ct *Controller) Cancel() error {
	ct.mu.Lock()
	if ct.cancel != nil {
		ct.cancel()
	}
	ct.mu.Unlock()
	return ct.Wait()
}

func (ct *Controller) startLocked(ctx context.Context) {
	ct.Controls.ClearStop()
	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ct.state = Running
	ct.done = done
	ct.cancel = cancel
	ct.lastErr = nil
	go ct.run(rctx, cancel, done)
}

func (ct *Controller) stopLocked() {
	ct.Controls.RequestStop()
	ct.state = Stopping
}

// run is the background run: restore the snapshot then run for Duration
func (ct *Controller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer cancel()
	err := ct.Engine.Restore(ct.Snapshot, ct.RestoreRandom)
	if err == nil {
		if ct.Relay != nil {
			ct.Relay.Reset()
		}
		err = ct.Engine.Run(ctx, ct.Duration)
		if errors.Is(err, snn.ErrStopped) {
			err = nil
		}
		if ct.Relay != nil {
			if ferr := ct.Relay.Flush(ct.Engine.Time(), true); err == nil {
				err = ferr
			}
		}
	}
	ct.mu.Lock()
	ct.lastErr = err
	ct.state = Idle
	ct.cancel = nil
	ct.runs++
	ct.mu.Unlock()
	ct.notify()
	close(done)
}

// notify reports the current state if it differs from the last one reported.
// The state is read under notifyMu, so a stale state never follows a newer one.
func (ct *Controller) notify() {
	if ct.OnStateChange == nil {
		return
	}
	ct.notifyMu.Lock()
	defer ct.notifyMu.Unlock()
	st := ct.State()
	if st == ct.notified {
		return
	}
	ct.notified = st
	ct.OnStateChange(st)
}
