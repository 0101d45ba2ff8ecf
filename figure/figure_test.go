// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package figure

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ccnlab/eyetrack/driver"
)

const difTol = 1.0e-10

func testBatch(t0 float64, n int) driver.TraceBatch {
	b := driver.TraceBatch{Time: t0 + float64(n)}
	b.State.Cols = []string{"x", "xo"}
	b.State.Vals = make([][]float64, 2)
	for i := 0; i < n; i++ {
		t := t0 + float64(i)
		b.State.T = append(b.State.T, t)
		b.State.Vals[0] = append(b.State.Vals[0], 0.1*t)
		b.State.Vals[1] = append(b.State.Vals[1], 0.2*t)
	}
	b.Spikes = []driver.Spikes{
		{Name: "retina", N: 4, T: []float64{t0, t0 + 1}, Idx: []int{1, 3}},
		{Name: "motor", N: 2, T: []float64{t0 + 2}, Idx: []int{1}},
	}
	return b
}

func TestTableUpdate(t *testing.T) {
	tb := NewTable([]string{"x", "xo"}, []string{"retina", "motor"})
	updates := 0
	tb.OnUpdate = func(tb *Table, b driver.TraceBatch) { updates++ }
	if err := tb.Update(testBatch(0, 5)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := tb.Update(testBatch(5, 3)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if tb.Rows() != 8 || updates != 2 {
		t.Fatalf("rows = %d, updates = %d, want 8, 2", tb.Rows(), updates)
	}
	if got := tb.State.CellFloat("xo", 6); math.Abs(got-1.2) > difTol {
		t.Errorf("xo at row 6 = %g, want 1.2", got)
	}
	if got := tb.Spike("retina").Rows; got != 4 {
		t.Errorf("retina spike rows = %d, want 4", got)
	}
	if got := tb.Spike("motor").CellFloat("T", 1); got != 7 {
		t.Errorf("second motor spike at %g, want 7", got)
	}

	bad := testBatch(0, 1)
	bad.State.Cols = []string{"x", "v"}
	if err := tb.Update(bad); err == nil {
		t.Errorf("Update() with wrong columns should fail")
	}
	bad = testBatch(0, 1)
	bad.Spikes[0].Name = "cortex"
	if err := tb.Update(bad); err == nil {
		t.Errorf("Update() with unknown spike monitor should fail")
	}

	tb.Reset()
	if tb.Rows() != 0 || tb.Spike("motor").Rows != 0 {
		t.Errorf("Reset() left rows")
	}
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir()
	tb := NewTable([]string{"x", "xo"}, []string{"retina", "motor"})
	if err := tb.Update(testBatch(0, 20)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	fnms, err := tb.SaveCSV(dir, "run")
	if err != nil {
		t.Fatalf("SaveCSV() error = %v", err)
	}
	if len(fnms) != 3 {
		t.Fatalf("SaveCSV() wrote %v, want 3 files", fnms)
	}
	for _, fnm := range fnms {
		if st, err := os.Stat(fnm); err != nil || st.Size() == 0 {
			t.Errorf("log file %s missing or empty: %v", fnm, err)
		}
	}

	png := filepath.Join(dir, "run.png")
	if err := NewPNG("test").Save(tb, png); err != nil {
		t.Fatalf("PNG Save() error = %v", err)
	}
	if st, err := os.Stat(png); err != nil || st.Size() == 0 {
		t.Errorf("png missing or empty: %v", err)
	}
}

func TestMulti(t *testing.T) {
	errA := errors.New("a")
	n := 0
	mf := Multi{
		driver.FigureFunc(func(b driver.TraceBatch) error { n++; return nil }),
		nil,
		driver.FigureFunc(func(b driver.TraceBatch) error { n++; return errA }),
	}
	if err := mf.Update(testBatch(0, 1)); !errors.Is(err, errA) {
		t.Errorf("Update() error = %v, want %v", err, errA)
	}
	if n != 2 {
		t.Errorf("%d figures updated, want 2", n)
	}
}
