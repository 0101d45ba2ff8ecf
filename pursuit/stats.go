// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pursuit

import (
	"math"

	"github.com/emer/etable/agg"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes how well the eye tracked the object over the recorded samples.
type Stats struct {
	Samples      int     `desc:"number of recorded eye samples"`
	TrackErr     float64 `desc:"root mean squared distance between eye and object"`
	Corr         float64 `desc:"correlation between eye and object positions -- 0 when either does not move"`
	RetinaSpikes int     `desc:"total number of retinal spikes"`
	MotorSpikes  int     `desc:"total number of motoneuron spikes"`
	LeftSpikes   int     `desc:"spikes of the motoneuron pulling left"`
	RightSpikes  int     `desc:"spikes of the motoneuron pulling right"`
}

// ErrTable returns the recorded eye samples with the squared tracking error
// of each sample in an Err2 column.
func (m *Model) ErrTable() *etable.Table {
	dt := m.EyeMon.Table(0)
	dt.AddCol(etensor.NewFloat64([]int{dt.Rows}, nil, nil), "Err2")
	x := m.EyeMon.Series("x")
	xo := m.EyeMon.Series("xo")
	for r := 0; r < dt.Rows; r++ {
		d := x[r] - xo[r]
		dt.SetCellFloat("Err2", r, d*d)
	}
	return dt
}

// TrackingError returns the root mean squared distance between the eye and
// the object over the recorded samples, 0 if there are none.
func (m *Model) TrackingError() float64 {
	if m.EyeMon.Len() == 0 {
		return 0
	}
	ix := etable.NewIdxView(m.ErrTable())
	return math.Sqrt(agg.Mean(ix, "Err2")[0])
}

// Stats computes the tracking statistics of the recorded data
func (m *Model) Stats() Stats {
	st := Stats{
		Samples:      m.EyeMon.Len(),
		TrackErr:     m.TrackingError(),
		RetinaSpikes: m.RetinaSpikes.NSpikes(),
		MotorSpikes:  m.MotorSpikes.NSpikes(),
		LeftSpikes:   m.MotorSpikes.Count(0),
		RightSpikes:  m.MotorSpikes.Count(1),
	}
	if st.Samples > 1 {
		st.Corr = stat.Correlation(m.EyeMon.Series("x"), m.EyeMon.Series("xo"), nil)
		if math.IsNaN(st.Corr) {
			st.Corr = 0
		}
	}
	return st
}
