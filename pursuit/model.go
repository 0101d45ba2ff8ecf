// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pursuit is a small spiking model of smooth pursuit eye movements.
//
// An object moves randomly (an Ornstein-Uhlenbeck process) in a 1D visual field.
// A retina of leaky integrate-and-fire neurons with Gaussian receptive fields
// sees the object relative to the eye, and drives two motoneurons that pull
// the eye left or right through a muscle command.
package pursuit

import (
	"context"
	"fmt"
	"math"

	"github.com/ccnlab/eyetrack/snn"
)

// Baseline is the name of the snapshot of the initial state stored by New
const Baseline = "baseline"

// eye state variables
const (
	EyeX = iota
	EyeV
	EyeX0
	EyeXObj
	EyeNoise
)

// EyeVars are the names of the eye state variables
var EyeVars = []string{"x", "v", "x0", "xo", "noise"}

// retina state variables
const (
	RetV = iota
	RetXN
	RetGs
)

// Model is the smooth pursuit network with its monitors.
type Model struct {
	Params       Params            `view:"inline" desc:"model parameters -- TauMuscle, TauObject and Gain can change while running"`
	Net          *snn.Network      `view:"-" desc:"the network"`
	Eye          *snn.Group        `view:"-" desc:"eye plant and object, a single unit"`
	Retina       *snn.Group        `view:"-" desc:"retinal neurons"`
	Motor        *snn.Group        `view:"-" desc:"left and right motoneurons"`
	RetinaMotor  *snn.Synapses     `view:"-" desc:"retina -> motoneurons"`
	MotorEye     *snn.Synapses     `view:"-" desc:"motoneurons -> muscle command"`
	EyeMon       *snn.StateMonitor `view:"-" desc:"records x, x0 and xo"`
	RetinaSpikes *snn.SpikeMonitor `view:"-" desc:"spikes of the retina"`
	MotorSpikes  *snn.SpikeMonitor `view:"-" desc:"spikes of the motoneurons"`
}

// New builds the model from p and stores its initial state as the Baseline snapshot.
func New(p Params) (*Model, error) {
	p.Update()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Model{Params: p}
	if err := m.build(); err != nil {
		return nil, err
	}
	m.Net.Store(Baseline)
	return m, nil
}

func (m *Model) build() error {
	p := &m.Params
	m.Net = snn.NewNetwork("pursuit", p.Dt, p.Seed)

	m.Eye = snn.NewGroup("eye", 1, EyeVars, snn.EquationsFunc(m.eyeDerivs))
	m.Eye.Noise = snn.NoiseFunc(func(t float64, i int, y, sigma []float64) {
		sigma[EyeNoise] = 1 / math.Sqrt(m.Params.TauObject)
	})

	m.Motor = snn.NewGroup("motor", 2, []string{"v"}, &motorEqs{m: m})
	m.Motor.Method = snn.Exact
	m.Motor.Threshold = spikeAbove1
	m.Motor.Reset = resetTo0
	m.Motor.Refractory = p.Refractory

	m.Retina = snn.NewGroup("retina", p.NRetina, []string{"v", "xn", "gs"}, snn.EquationsFunc(m.retinaDerivs))
	m.Retina.Threshold = spikeAbove1
	m.Retina.Reset = resetTo0
	rng := m.Net.Rand()
	for i := 0; i < p.NRetina; i++ {
		y := m.Retina.State(i)
		y[RetV] = rng.Float64()
		y[RetXN] = p.XNeuron(i)
		y[RetGs] = p.Gs
	}

	m.RetinaMotor = snn.NewSynapses("retina_motor", m.Retina, m.Motor, addToV)
	err := m.RetinaMotor.ConnectFunc(func(i int) []int {
		if p.XNeuron(i) > 0 {
			return []int{1}
		}
		return []int{0}
	}, func(i, j int) float64 {
		return p.SensoryW * math.Abs(p.XNeuron(i)) / float64(p.NRetina)
	})
	if err != nil {
		return err
	}

	m.MotorEye = snn.NewSynapses("motor_eye", m.Motor, m.Eye, func(post *snn.Group, j int, w float64) {
		post.State(j)[EyeX0] += w
	})
	if err := m.MotorEye.Connect(0, 0, -p.MotorW); err != nil {
		return err
	}
	if err := m.MotorEye.Connect(1, 0, p.MotorW); err != nil {
		return err
	}

	m.EyeMon, err = snn.NewStateMonitor("eye_state", m.Eye, []string{"x", "x0", "xo"})
	if err != nil {
		return err
	}
	m.EyeMon.Every = int(math.Max(1, math.Round(p.Record/p.Dt)))
	m.RetinaSpikes = snn.NewSpikeMonitor("retina_spikes", m.Retina)
	m.MotorSpikes = snn.NewSpikeMonitor("motor_spikes", m.Motor)

	if err := m.Net.Add(m.Eye, m.Motor, m.Retina, m.RetinaMotor, m.MotorEye,
		m.EyeMon, m.RetinaSpikes, m.MotorSpikes); err != nil {
		return fmt.Errorf("pursuit: %w", err)
	}
	return nil
}

func (m *Model) eyeDerivs(t float64, i int, y, dydt []float64) {
	p := &m.Params
	dydt[EyeX] = y[EyeV]
	dydt[EyeV] = p.Alpha*(y[EyeX0]-y[EyeX]) - p.Beta*y[EyeV]
	dydt[EyeX0] = -y[EyeX0] / p.TauMuscle
	dydt[EyeXObj] = (y[EyeNoise] - y[EyeXObj]) / p.TauObject
	dydt[EyeNoise] = -y[EyeNoise] / p.TauObject
}

// Input returns the receptive field input of retinal neuron i for the current
// eye and object positions.
func (m *Model) Input(i int) float64 {
	eye := m.Eye.State(0)
	return m.input(m.Retina.State(i)[RetXN], eye[EyeX], eye[EyeXObj])
}

func (m *Model) input(xn, x, xo float64) float64 {
	d := (xo - x - xn) / m.Params.RFWidth
	return m.Params.Gain * math.Exp(-d*d)
}

func (m *Model) retinaDerivs(t float64, i int, y, dydt []float64) {
	eye := m.Eye.State(0)
	in := m.input(y[RetXN], eye[EyeX], eye[EyeXObj])
	dydt[RetV] = (in - (1 + y[RetGs])) / m.Params.TauM
}

type motorEqs struct {
	m *Model
}

func (me *motorEqs) Derivatives(t float64, i int, y, dydt []float64) {
	dydt[0] = -y[0] / me.m.Params.TauM
}

func (me *motorEqs) StepExact(t, dt float64, i int, y []float64) {
	y[0] *= math.Exp(-dt / me.m.Params.TauM)
}

func spikeAbove1(i int, y []float64) bool {
	return y[0] > 1
}

func resetTo0(i int, y []float64) {
	y[0] = 0
}

func addToV(post *snn.Group, j int, w float64) {
	post.State(j)[0] += w
}

// SetTauMuscle sets the muscle time constant, used from the next step on
func (m *Model) SetTauMuscle(tau float64) {
	m.Params.TauMuscle = tau
}

// SetTauObject sets the object time constant, used from the next step on
func (m *Model) SetTauObject(tau float64) {
	m.Params.TauObject = tau
}

// SetGain sets the retinal gain, used from the next step on
func (m *Model) SetGain(gain float64) {
	m.Params.Gain = gain
}

// Run runs the network for duration msec from the current time
func (m *Model) Run(ctx context.Context, duration float64) error {
	return m.Net.Run(ctx, duration)
}

// Restore restores the named snapshot of the network
func (m *Model) Restore(name string, restoreRandom bool) error {
	return m.Net.Restore(name, restoreRandom)
}

// Stop requests the current run to stop at the end of the current step
func (m *Model) Stop() {
	m.Net.Stop()
}

// Time returns the current simulation time
func (m *Model) Time() float64 {
	return m.Net.Time()
}

// AddOperation adds a network operation called periodically while running
func (m *Model) AddOperation(op *snn.NetworkOperation) error {
	return m.Net.Add(op)
}

// StateMonitor returns the eye state monitor
func (m *Model) StateMonitor() *snn.StateMonitor {
	return m.EyeMon
}

// SpikeMonitors returns the retina and motoneuron spike monitors
func (m *Model) SpikeMonitors() []*snn.SpikeMonitor {
	return []*snn.SpikeMonitor{m.RetinaSpikes, m.MotorSpikes}
}
