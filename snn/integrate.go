// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "gonum.org/v1/gonum/mat"

// stepper holds the stage vectors of an explicit Runge-Kutta method
// for one unit of nvars state variables.
type stepper struct {
	tab   *tableau
	nvars int
	k     []*mat.VecDense
	tmp   *mat.VecDense
}

func newStepper(tab *tableau, nvars int) *stepper {
	st := &stepper{tab: tab, nvars: nvars}
	st.k = make([]*mat.VecDense, tab.stages())
	for s := range st.k {
		st.k[s] = mat.NewVecDense(nvars, nil)
	}
	st.tmp = mat.NewVecDense(nvars, nil)
	return st
}

// step advances y of unit i in place from t to t+dt.
func (st *stepper) step(eqs Equations, t, dt float64, i int, y []float64) {
	yv := mat.NewVecDense(st.nvars, y)
	for s := 0; s < st.tab.stages(); s++ {
		st.tmp.CopyVec(yv)
		for j, a := range st.tab.a[s] {
			if a != 0 {
				st.tmp.AddScaledVec(st.tmp, dt*a, st.k[j])
			}
		}
		st.k[s].Zero()
		eqs.Derivatives(t+dt*st.tab.c[s], i, st.tmp.RawVector().Data, st.k[s].RawVector().Data)
	}
	for s, b := range st.tab.b {
		if b != 0 {
			yv.AddScaledVec(yv, dt*b, st.k[s])
		}
	}
}
