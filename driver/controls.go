// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/emer/etable/minmax"
)

// Slider is a bounded numeric control whose value can be set from a UI
// goroutine and read from the simulation goroutine.
type Slider struct {
	Nm       string                        `desc:"name of the slider"`
	Range    minmax.F64                    `desc:"allowed range of values"`
	Step     float64                       `desc:"values are rounded to Range.Min plus a multiple of Step -- 0 = no rounding"`
	Desc     string                        `desc:"description shown as a tooltip"`
	OnChange func(sl *Slider, val float64) `view:"-" desc:"called after the value changes"`

	bits atomic.Uint64
}

// NewSlider returns a slider over [min, max] with the given step and initial value
func NewSlider(name string, min, max, step, val float64) *Slider {
	sl := &Slider{Nm: name, Range: minmax.F64{Min: min, Max: max}, Step: step}
	sl.bits.Store(math.Float64bits(sl.fit(val)))
	return sl
}

// Name returns the name of the slider
func (sl *Slider) Name() string {
	return sl.Nm
}

// Value returns the current value
func (sl *Slider) Value() float64 {
	return math.Float64frombits(sl.bits.Load())
}

// fit rounds val to the step grid and clips it into range
func (sl *Slider) fit(val float64) float64 {
	if sl.Step > 0 {
		val = sl.Range.Min + math.Round((val-sl.Range.Min)/sl.Step)*sl.Step
	}
	return sl.Range.ClipVal(val)
}

// Set sets the value, rounded to the step and clipped into range,
// and returns the value actually set.
func (sl *Slider) Set(val float64) float64 {
	if math.IsNaN(val) {
		return sl.Value()
	}
	val = sl.fit(val)
	prv := math.Float64frombits(sl.bits.Swap(math.Float64bits(val)))
	if prv != val && sl.OnChange != nil {
		sl.OnChange(sl, val)
	}
	return val
}

// Values are the slider values relayed into the model
type Values struct {
	TauMuscle float64 `json:"tau_muscle" min:"5" max:"100" step:"1" desc:"time constant of the muscle command (msec)"`
	TauObject float64 `json:"tau_object" min:"100" max:"2000" step:"10" desc:"time constant of the object's motion (msec)"`
	Gain      float64 `json:"gain" min:"0" max:"10" step:"0.1" desc:"gain of the retinal receptive fields"`
}

// Controls are the user controls of the simulation: three sliders and
// a stop request, all safe to use from any goroutine.
type Controls struct {
	TauMuscle *Slider `desc:"muscle time constant, msec"`
	TauObject *Slider `desc:"object time constant, msec"`
	Gain      *Slider `desc:"retinal gain"`

	stop atomic.Bool
}

// NewControls returns controls with their default ranges and values
func NewControls() *Controls {
	c := &Controls{
		TauMuscle: NewSlider("TauMuscle", 5, 100, 1, 20),
		TauObject: NewSlider("TauObject", 100, 2000, 10, 500),
		Gain:      NewSlider("Gain", 0, 10, 0.1, 4),
	}
	c.TauMuscle.Desc = "time constant of the muscle command (msec)"
	c.TauObject.Desc = "time constant of the object's motion (msec)"
	c.Gain.Desc = "gain of the retinal receptive fields"
	return c
}

// Sliders returns all sliders
func (c *Controls) Sliders() []*Slider {
	return []*Slider{c.TauMuscle, c.TauObject, c.Gain}
}

// Slider returns the named slider
func (c *Controls) Slider(name string) (*Slider, error) {
	for _, sl := range c.Sliders() {
		if sl.Nm == name {
			return sl, nil
		}
	}
	return nil, fmt.Errorf("driver: no slider named %q", name)
}

// Set sets the named slider and returns the value actually set
func (c *Controls) Set(name string, val float64) (float64, error) {
	sl, err := c.Slider(name)
	if err != nil {
		return 0, err
	}
	return sl.Set(val), nil
}

// Values returns the current slider values
func (c *Controls) Values() Values {
	return Values{TauMuscle: c.TauMuscle.Value(), TauObject: c.TauObject.Value(), Gain: c.Gain.Value()}
}

// SetValues sets all sliders from vals
func (c *Controls) SetValues(vals Values) {
	c.TauMuscle.Set(vals.TauMuscle)
	c.TauObject.Set(vals.TauObject)
	c.Gain.Set(vals.Gain)
}

// RequestStop asks the running simulation to stop at its next callback
func (c *Controls) RequestStop() {
	c.stop.Store(true)
}

// ClearStop withdraws a stop request
func (c *Controls) ClearStop() {
	c.stop.Store(false)
}

// StopRequested reports whether a stop was requested
func (c *Controls) StopRequested() bool {
	return c.stop.Load()
}
