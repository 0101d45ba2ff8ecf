// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/ccnlab/eyetrack/driver"
	"github.com/ccnlab/eyetrack/pursuit"
	"github.com/ccnlab/eyetrack/snapdb"
)

const difTol = 1.0e-10

// newTestSim returns a sim configured without reading config files or args
func newTestSim(t *testing.T, db *snapdb.DB) *Sim {
	t.Helper()
	ss := &Sim{DB: db}
	ss.Config.Params.Set = "Base"
	ss.Config.Run.Duration = 200
	ss.Config.Run.Period = 50
	ss.Config.Snap.Name = "baseline"
	ss.Params.Defaults()
	ss.Controls = driver.NewControls()
	ss.ctx, ss.cancel = context.WithCancel(context.Background())
	t.Cleanup(ss.cancel)
	return ss
}

func TestParamSets(t *testing.T) {
	tests := []struct {
		set  string
		want func(p *pursuit.Params) bool
	}{
		{"Base", func(p *pursuit.Params) bool {
			return p.TauObject == 500 && p.Gain == 4 && p.TauMuscle == 20 && p.MotorW == 0.5
		}},
		{"FastObject", func(p *pursuit.Params) bool {
			return p.TauObject == 150 && p.Gain == 6 && p.TauMuscle == 20
		}},
		{"Sluggish", func(p *pursuit.Params) bool {
			return p.TauMuscle == 80 && p.Gain == 2 && p.MotorW == 0.3 && p.TauObject == 500
		}},
	}
	if len(tests) != len(ParamSets) {
		t.Fatalf("testing %d param sets, have %d: %v", len(tests), len(ParamSets), ParamSetNames())
	}
	for _, tt := range tests {
		var p pursuit.Params
		p.Defaults()
		if err := SetParams(&p, tt.set, nil, false); err != nil {
			t.Fatalf("SetParams(%s) error = %v", tt.set, err)
		}
		if !tt.want(&p) {
			t.Errorf("SetParams(%s) = %+v", tt.set, p)
		}
	}
}

func TestSetParamsUnknown(t *testing.T) {
	var p pursuit.Params
	p.Defaults()
	if err := SetParams(&p, "Fast", nil, false); err == nil {
		t.Errorf("SetParams() of unknown set should fail")
	}
}

func TestSetParamsExtra(t *testing.T) {
	var p pursuit.Params
	p.Defaults()
	err := SetParams(&p, "FastObject", map[string]any{"Gain": 7.5, "NRetina": 40}, false)
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	if p.Gain != 7.5 || p.TauObject != 150 || p.NRetina != 40 {
		t.Errorf("extra values not applied over preset: %+v", p)
	}
	if math.Abs(p.RFWidth-0.05) > difTol {
		t.Errorf("RFWidth = %g, want 0.05 after update", p.RFWidth)
	}

	tests := []map[string]any{
		{"NRetina": 1},
		{"Dt": 0},
		{"TauMuscle": -1},
	}
	for _, extra := range tests {
		p.Defaults()
		if err := SetParams(&p, "Base", extra, false); err == nil {
			t.Errorf("SetParams(%v) should fail validation", extra)
		}
	}
}

func TestConfigSnap(t *testing.T) {
	for _, nm := range []string{"baseline", "shared"} {
		db, err := snapdb.Open(filepath.Join(t.TempDir(), "snaps.db"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		ctx := context.Background()

		ss := newTestSim(t, db)
		ss.Config.Snap.Name = nm
		if err := ss.Init(); err != nil {
			t.Fatalf("%s: Init() error = %v", nm, err)
		}
		first, ok := ss.Model.Net.Snapshot(pursuit.Baseline)
		if !ok {
			t.Fatalf("%s: no baseline snapshot", nm)
		}
		infos, err := db.List(ctx)
		if err != nil {
			t.Fatalf("%s: List() error = %v", nm, err)
		}
		if len(infos) != 1 || infos[0].Name != nm {
			t.Fatalf("%s: saved snapshots = %+v, want one named %q", nm, infos, nm)
		}

		ss2 := newTestSim(t, db)
		ss2.Config.Snap.Name = nm
		ss2.Params.Seed = 7
		if err := ss2.Init(); err != nil {
			t.Fatalf("%s: second Init() error = %v", nm, err)
		}
		got, _ := ss2.Model.Net.Snapshot(pursuit.Baseline)
		if got.Seed != first.Seed {
			t.Errorf("%s: baseline seed = %d, want %d loaded from the database", nm, got.Seed, first.Seed)
		}
		for i, y := range first.Groups["retina"].State {
			if got.Groups["retina"].State[i][0] != y[0] {
				t.Errorf("%s: retina %d = %g, want %g", nm, i, got.Groups["retina"].State[i][0], y[0])
				break
			}
		}
		if infos, _ := db.List(ctx); len(infos) != 1 {
			t.Errorf("%s: %d snapshots after reload, want 1", nm, len(infos))
		}
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}
