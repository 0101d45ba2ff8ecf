// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

// ParamConfig has config parameters related to sim params
type ParamConfig struct {
	Set   string         `def:"Base" desc:"name of the preset in ParamSets applied to the model params: Base, FastObject or Sluggish"`
	Model map[string]any `desc:"extra model parameters, by field name of pursuit.Params, applied after the preset"`
	Note  string         `desc:"user note -- describe the run params etc -- like a git commit message for the run"`
}

// RunConfig has config parameters related to running the sim
type RunConfig struct {
	Duration      float64 `def:"10000" min:"1" desc:"simulation time of each run, msec"`
	Period        float64 `def:"100" min:"0.1" desc:"simulation time between two relay calls, msec -- slider changes and stop requests take effect at these calls, and the plots are updated"`
	RestoreRandom bool    `def:"false" desc:"restore the random state with the baseline, so that every run repeats the same object motion"`
	NRuns         int     `def:"1" min:"1" desc:"number of runs in nogui mode, each from the baseline"`
}

// LogConfig has config parameters related to logging data
type LogConfig struct {
	Dir     string `def:"logs" desc:"directory for the saved logs and figures"`
	SaveCSV bool   `def:"true" desc:"if true, save the eye trace and spike logs of each run to tab separated files, in nogui mode"`
	SavePNG bool   `def:"true" desc:"if true, save a figure of each run to a png file, in nogui mode"`
}

// ServeConfig has config parameters of the websocket server
type ServeConfig struct {
	Addr string `desc:"if set, e.g. :8080, serve the figure and controls over a websocket at /ws on this address"`
}

// SnapConfig has config parameters of the snapshot database
type SnapConfig struct {
	DB   string `desc:"if set, path of a sqlite database holding the baseline snapshot: it is loaded from there when present, and saved there otherwise"`
	Name string `def:"baseline" desc:"name of the baseline snapshot in the database"`
}

// Config is a standard Sim config -- use as a starting point.
type Config struct {
	Includes []string    `desc:"specify include files here, and after configuration, it contains list of include files added"`
	GUI      bool        `def:"true" desc:"open the GUI -- does not automatically run -- if false, then runs automatically and quits"`
	Debug    bool        `desc:"log debugging information"`
	Params   ParamConfig `view:"add-fields" desc:"parameter related configuration options"`
	Run      RunConfig   `view:"add-fields" desc:"sim running related configuration options"`
	Log      LogConfig   `view:"add-fields" desc:"data logging related configuration options"`
	Serve    ServeConfig `view:"add-fields" desc:"websocket server options"`
	Snap     SnapConfig  `view:"add-fields" desc:"snapshot database options"`
}

func (cfg *Config) IncludesPtr() *[]string { return &cfg.Includes }
