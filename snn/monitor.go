// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// SpikeMonitor records the time and unit index of every spike of a group.
type SpikeMonitor struct {
	Nm  string    `desc:"name of the monitor"`
	Src *Group    `desc:"recorded group"`
	T   []float64 `desc:"spike times"`
	Idx []int     `desc:"index of the unit for each spike"`

	counts []int
}

// NewSpikeMonitor returns a monitor of the spikes of src
func NewSpikeMonitor(name string, src *Group) *SpikeMonitor {
	return &SpikeMonitor{Nm: name, Src: src, counts: make([]int, src.N)}
}

// Name returns the name of the monitor
func (sm *SpikeMonitor) Name() string {
	return sm.Nm
}

// Len returns the number of recorded spikes
func (sm *SpikeMonitor) Len() int {
	return len(sm.T)
}

// NSpikes is the total number of recorded spikes, same as Len
func (sm *SpikeMonitor) NSpikes() int {
	return len(sm.T)
}

// Count returns the number of spikes of unit i
func (sm *SpikeMonitor) Count(i int) int {
	return sm.counts[i]
}

func (sm *SpikeMonitor) record(t float64) {
	for _, i := range sm.Src.spiked {
		sm.T = append(sm.T, t)
		sm.Idx = append(sm.Idx, i)
		sm.counts[i]++
	}
}

// truncate drops all spikes after the first n
func (sm *SpikeMonitor) truncate(n int) {
	if n >= len(sm.T) {
		return
	}
	for _, i := range sm.Idx[n:] {
		sm.counts[i]--
	}
	sm.T = sm.T[:n]
	sm.Idx = sm.Idx[:n]
}

// Table returns the spikes recorded from row st on, in a table with T and Idx columns.
func (sm *SpikeMonitor) Table(st int) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", sm.Nm)
	dt.SetMetaData("desc", "spikes of group "+sm.Src.Nm)
	dt.SetMetaData("read-only", "true")
	sch := etable.Schema{
		{"T", etensor.FLOAT64, nil, nil},
		{"Idx", etensor.INT64, nil, nil},
	}
	n := 0
	if st < len(sm.T) {
		n = len(sm.T) - st
	}
	dt.SetFromSchema(sch, n)
	for r := 0; r < n; r++ {
		dt.SetCellFloat("T", r, sm.T[st+r])
		dt.SetCellFloat("Idx", r, float64(sm.Idx[st+r]))
	}
	return dt
}

// StateMonitor records state variables of selected units every Every steps.
type StateMonitor struct {
	Nm    string   `desc:"name of the monitor"`
	Src   *Group   `desc:"recorded group"`
	Vars  []string `desc:"recorded variables"`
	Units []int    `desc:"recorded units"`
	Every int      `min:"1" desc:"record every this many steps"`

	T    []float64   `desc:"recording times"`
	Data [][]float64 `desc:"one series per column, var major, unit minor"`

	varIdx []int
}

// NewStateMonitor returns a monitor of vars of the given units of src,
// recording every step.  No units means all units.
func NewStateMonitor(name string, src *Group, vars []string, units ...int) (*StateMonitor, error) {
	sm := &StateMonitor{Nm: name, Src: src, Vars: vars, Units: units, Every: 1}
	if len(sm.Units) == 0 {
		sm.Units = make([]int, src.N)
		for i := range sm.Units {
			sm.Units[i] = i
		}
	}
	for _, u := range sm.Units {
		if u < 0 || u >= src.N {
			return nil, fmt.Errorf("snn: state monitor %q: unit %d out of range", name, u)
		}
	}
	sm.varIdx = make([]int, len(vars))
	for i, v := range vars {
		vi, err := src.VarIdx(v)
		if err != nil {
			return nil, err
		}
		sm.varIdx[i] = vi
	}
	sm.Data = make([][]float64, len(vars)*len(sm.Units))
	return sm, nil
}

// Name returns the name of the monitor
func (sm *StateMonitor) Name() string {
	return sm.Nm
}

// Len returns the number of recorded samples
func (sm *StateMonitor) Len() int {
	return len(sm.T)
}

// ColName returns the column name of variable v of unit u: just the variable
// name when a single unit is recorded, else name[unit].
func (sm *StateMonitor) ColName(v, u int) string {
	if len(sm.Units) == 1 {
		return sm.Vars[v]
	}
	return fmt.Sprintf("%s[%d]", sm.Vars[v], sm.Units[u])
}

// Series returns the recorded samples of the named column, nil if none.
func (sm *StateMonitor) Series(col string) []float64 {
	for v := range sm.Vars {
		for u := range sm.Units {
			if sm.ColName(v, u) == col {
				return sm.Data[v*len(sm.Units)+u]
			}
		}
	}
	return nil
}

func (sm *StateMonitor) record(step int64, t float64) {
	if sm.Every > 1 && step%int64(sm.Every) != 0 {
		return
	}
	sm.T = append(sm.T, t)
	nu := len(sm.Units)
	for v, vi := range sm.varIdx {
		for u, ui := range sm.Units {
			c := v*nu + u
			sm.Data[c] = append(sm.Data[c], sm.Src.state[ui][vi])
		}
	}
}

func (sm *StateMonitor) truncate(n int) {
	if n >= len(sm.T) {
		return
	}
	sm.T = sm.T[:n]
	for c := range sm.Data {
		sm.Data[c] = sm.Data[c][:n]
	}
}

// Table returns the samples recorded from row st on, with a T column
// followed by one column per recorded variable and unit.
func (sm *StateMonitor) Table(st int) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", sm.Nm)
	dt.SetMetaData("desc", "state of group "+sm.Src.Nm)
	dt.SetMetaData("read-only", "true")
	sch := etable.Schema{{"T", etensor.FLOAT64, nil, nil}}
	for v := range sm.Vars {
		for u := range sm.Units {
			sch = append(sch, etable.Column{sm.ColName(v, u), etensor.FLOAT64, nil, nil})
		}
	}
	n := 0
	if st < len(sm.T) {
		n = len(sm.T) - st
	}
	dt.SetFromSchema(sch, n)
	for r := 0; r < n; r++ {
		dt.SetCellFloatIdx(0, r, sm.T[st+r])
		for c, ser := range sm.Data {
			dt.SetCellFloatIdx(c+1, r, ser[st+r])
		}
	}
	return dt
}
