// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package figure has the sinks that show the data produced by a running
// simulation: etable logs for the GUI plots, PNG rendering and a websocket hub.
package figure

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ccnlab/eyetrack/driver"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
)

// LogPrec is the precision for saving float values in logs
const LogPrec = 6

// Table accumulates the batches of a run into etables: one for the state
// samples and one per spike monitor.
type Table struct {
	State    *etable.Table                            `view:"no-inline" desc:"state samples, T and one column per recorded variable"`
	Spikes   []*etable.Table                          `view:"no-inline" desc:"spikes of each monitored group, T and Idx columns"`
	OnUpdate func(tb *Table, batch driver.TraceBatch) `view:"-" desc:"called after each batch is added, e.g. to refresh plots"`

	mu        sync.Mutex
	spikeIdx  map[string]int
	spikeN    []int
	stateCols []string
}

// NewTable returns a table for the given state columns and spike monitor names
func NewTable(stateCols []string, spikeNames []string) *Table {
	tb := &Table{stateCols: stateCols, spikeIdx: make(map[string]int)}
	tb.State = &etable.Table{}
	configTable(tb.State, "State", "state samples of the eye and object")
	sch := etable.Schema{{"T", etensor.FLOAT64, nil, nil}}
	for _, c := range stateCols {
		sch = append(sch, etable.Column{c, etensor.FLOAT64, nil, nil})
	}
	tb.State.SetFromSchema(sch, 0)
	for i, nm := range spikeNames {
		dt := &etable.Table{}
		configTable(dt, nm, "spike times and unit indexes of "+nm)
		dt.SetFromSchema(etable.Schema{
			{"T", etensor.FLOAT64, nil, nil},
			{"Idx", etensor.FLOAT64, nil, nil},
		}, 0)
		tb.Spikes = append(tb.Spikes, dt)
		tb.spikeN = append(tb.spikeN, 0)
		tb.spikeIdx[nm] = i
	}
	return tb
}

func configTable(dt *etable.Table, name, desc string) {
	dt.SetMetaData("name", name)
	dt.SetMetaData("desc", desc)
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))
}

// Spike returns the spike table of the named monitor, nil if none
func (tb *Table) Spike(name string) *etable.Table {
	si, ok := tb.spikeIdx[name]
	if !ok {
		return nil
	}
	return tb.Spikes[si]
}

// Update appends the batch to the tables
func (tb *Table) Update(batch driver.TraceBatch) error {
	tb.mu.Lock()
	err := tb.add(batch)
	tb.mu.Unlock()
	if err != nil {
		return err
	}
	if tb.OnUpdate != nil {
		tb.OnUpdate(tb, batch)
	}
	return nil
}

func (tb *Table) add(batch driver.TraceBatch) error {
	if len(batch.State.Cols) != len(tb.stateCols) {
		return fmt.Errorf("figure: batch has state columns %v, want %v", batch.State.Cols, tb.stateCols)
	}
	for i, c := range batch.State.Cols {
		if c != tb.stateCols[i] {
			return fmt.Errorf("figure: batch has state columns %v, want %v", batch.State.Cols, tb.stateCols)
		}
	}
	dt := tb.State
	st := dt.Rows
	n := len(batch.State.T)
	dt.SetNumRows(st + n)
	for r := 0; r < n; r++ {
		dt.SetCellFloatIdx(0, st+r, batch.State.T[r])
		for c, vals := range batch.State.Vals {
			dt.SetCellFloatIdx(c+1, st+r, vals[r])
		}
	}
	for _, sp := range batch.Spikes {
		si, ok := tb.spikeIdx[sp.Name]
		if !ok {
			return fmt.Errorf("figure: no table for spikes of %q", sp.Name)
		}
		tb.spikeN[si] = sp.N
		dt := tb.Spikes[si]
		st := dt.Rows
		dt.SetNumRows(st + len(sp.T))
		for r, t := range sp.T {
			dt.SetCellFloatIdx(0, st+r, t)
			dt.SetCellFloatIdx(1, st+r, float64(sp.Idx[r]))
		}
	}
	return nil
}

// Reset removes all rows
func (tb *Table) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.State.SetNumRows(0)
	for _, dt := range tb.Spikes {
		dt.SetNumRows(0)
	}
}

// Rows returns the number of state samples
func (tb *Table) Rows() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.State.Rows
}

// SaveCSV saves all tables as tab separated files named prefix_name.tsv in dir,
// and returns the file names.
func (tb *Table) SaveCSV(dir, prefix string) ([]string, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var fnms []string
	for _, dt := range append([]*etable.Table{tb.State}, tb.Spikes...) {
		fnm := filepath.Join(dir, prefix+"_"+dt.MetaData["name"]+".tsv")
		if err := dt.SaveCSV(gi.FileName(fnm), etable.Tab, etable.Headers); err != nil {
			return fnms, fmt.Errorf("figure: saving %s: %w", fnm, err)
		}
		fnms = append(fnms, fnm)
	}
	return fnms, nil
}
