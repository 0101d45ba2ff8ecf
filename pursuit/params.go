// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pursuit

import "fmt"

// Params are the parameters of the smooth pursuit model.  All times are in msec,
// positions are in units of the visual field, which spans -1..1.
type Params struct {
	TauMuscle  float64 `def:"20" min:"5" max:"100" desc:"time constant of the muscle command x0, which relaxes to 0"`
	TauObject  float64 `def:"500" min:"100" max:"2000" desc:"time constant of the object's random motion -- larger is slower and smoother"`
	Gain       float64 `def:"4" min:"0" max:"10" desc:"gain of the retinal receptive fields"`
	Relax      float64 `def:"50" desc:"time scale of the eye's spring towards x0: alpha = 1/Relax^2"`
	Friction   float64 `def:"50" desc:"time scale of the eye's friction: beta = 1/Friction"`
	TauM       float64 `def:"20" desc:"membrane time constant of retina and motoneurons"`
	Refractory float64 `def:"5" desc:"refractory period of the motoneurons"`
	NRetina    int     `def:"20" min:"2" desc:"number of retinal neurons, evenly spaced over -1..1"`
	Width      float64 `def:"0" desc:"width of the retinal receptive fields -- 0 = 2 / NRetina"`
	Gs         float64 `def:"0" desc:"shunting conductance of the retinal neurons"`
	MotorW     float64 `def:"0.5" desc:"kick given to the muscle command by one motoneuron spike"`
	SensoryW   float64 `def:"20" desc:"retina -> motoneuron weight scale: w = SensoryW * |x| / NRetina"`
	Dt         float64 `def:"0.1" desc:"integration time step"`
	Record     float64 `def:"1" desc:"interval between recorded eye samples"`
	Seed       int64   `def:"1" desc:"random seed"`

	Alpha   float64 `view:"-" desc:"computed: 1 / Relax^2"`
	Beta    float64 `view:"-" desc:"computed: 1 / Friction"`
	RFWidth float64 `view:"-" desc:"computed: receptive field width in use"`
}

func (p *Params) Defaults() {
	p.TauMuscle = 20
	p.TauObject = 500
	p.Gain = 4
	p.Relax = 50
	p.Friction = 50
	p.TauM = 20
	p.Refractory = 5
	p.NRetina = 20
	p.Width = 0
	p.Gs = 0
	p.MotorW = 0.5
	p.SensoryW = 20
	p.Dt = 0.1
	p.Record = 1
	p.Seed = 1
	p.Update()
}

// Update updates computed values
func (p *Params) Update() {
	p.RFWidth = p.Width
	if p.RFWidth <= 0 && p.NRetina > 0 {
		p.RFWidth = 2 / float64(p.NRetina)
	}
	if p.Relax > 0 {
		p.Alpha = 1 / (p.Relax * p.Relax)
	}
	if p.Friction > 0 {
		p.Beta = 1 / p.Friction
	}
}

// Validate returns an error for parameters the model cannot run with
func (p *Params) Validate() error {
	switch {
	case p.NRetina < 2:
		return fmt.Errorf("pursuit: need at least 2 retinal neurons, have %d", p.NRetina)
	case p.Dt <= 0:
		return fmt.Errorf("pursuit: invalid time step %g", p.Dt)
	case p.TauMuscle <= 0 || p.TauObject <= 0 || p.TauM <= 0:
		return fmt.Errorf("pursuit: time constants must be positive")
	case p.Relax <= 0 || p.Friction <= 0:
		return fmt.Errorf("pursuit: eye time scales must be positive")
	case p.Width < 0:
		return fmt.Errorf("pursuit: invalid receptive field width %g", p.Width)
	}
	return nil
}

// XNeuron returns the preferred retinal position of retinal neuron i
func (p *Params) XNeuron(i int) float64 {
	return -1 + 2*float64(i)/float64(p.NRetina-1)
}
