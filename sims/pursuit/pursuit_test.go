// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math"
	"sync"
	"testing"
)

// TestSlidersDuringRun sets sliders and reads the shared values while a
// run is going, as the websocket clients and the GUI do.
func TestSlidersDuringRun(t *testing.T) {
	ss := newTestSim(t, nil)
	ss.Controls.Gain.OnChange = ss.sliderChanged
	if err := ss.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if ss.SliderValues().Gain != ss.Params.Gain {
		t.Fatalf("slider gain = %g, want %g", ss.SliderValues().Gain, ss.Params.Gain)
	}

	ss.Toggle()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := ss.SetControl("Gain", float64(i+j%5)); err != nil {
					t.Errorf("SetControl() error = %v", err)
					return
				}
				ss.RunStats()
				ss.SliderValues()
				ss.RunName()
			}
		}(i)
	}
	wg.Wait()
	if _, err := ss.SetControl("Gain", 3); err != nil {
		t.Fatalf("SetControl() error = %v", err)
	}
	if err := ss.Controller().Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := ss.SliderValues().Gain; math.Abs(got-3) > difTol {
		t.Errorf("slider gain = %g, want 3", got)
	}
	st := ss.RunStats()
	if st.Samples == 0 {
		t.Errorf("no stats after the run: %+v", st)
	}
	if err := ss.Init(); err != nil {
		t.Fatalf("Init() after run error = %v", err)
	}
	if st := ss.RunStats(); st.Samples != 0 {
		t.Errorf("Init() kept the stats of the last run: %+v", st)
	}
}
