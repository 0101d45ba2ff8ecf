// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "github.com/goki/ki/kit"

// Method is the numerical integration method used to advance a Group
type Method int32

//go:generate stringer -type=Method

var KiT_Method = kit.Enums.AddEnum(MethodN, kit.NotBitFlag, nil)

func (ev Method) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Method) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Euler is the forward Euler method, first order.
	Euler Method = iota

	// Heun is the explicit trapezoid method, second order.
	Heun

	// RK4 is the classical fourth order Runge-Kutta method.
	RK4

	// Exact uses the closed-form update of equations implementing ExactStepper.
	Exact

	MethodN
)

// tableau is the Butcher tableau of an explicit Runge-Kutta method.
// a is strictly lower triangular: row s holds the coefficients of the
// stages before s.
type tableau struct {
	a [][]float64
	b []float64
	c []float64
}

func (tb *tableau) stages() int {
	return len(tb.b)
}

var tableaux = map[Method]*tableau{
	Euler: {
		a: [][]float64{nil},
		b: []float64{1},
		c: []float64{0},
	},
	Heun: {
		a: [][]float64{nil, {1}},
		b: []float64{0.5, 0.5},
		c: []float64{0, 1},
	},
	RK4: {
		a: [][]float64{nil, {0.5}, {0, 0.5}, {0, 0, 1}},
		b: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		c: []float64{0, 0.5, 0.5, 1},
	},
}
