// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log"

	"github.com/ccnlab/eyetrack/driver"
	"github.com/ccnlab/eyetrack/figure"
	"github.com/emer/emergent/egui"
	"github.com/emer/etable/eplot"
	"github.com/emer/etable/etable"
	_ "github.com/emer/etable/etview" // include to get gui views
	"github.com/goki/gi/gi"
	"github.com/goki/ki/ki"
)

// ConfigTracePlot configures the plot of the eye and object positions
func (ss *Sim) ConfigTracePlot(plt *eplot.Plot2D, dt *etable.Table) *eplot.Plot2D {
	plt.Params.Title = "Eye and Object Position"
	plt.Params.XAxisCol = "T"
	plt.SetTable(dt)
	// order of params: on, fixMin, min, fixMax, max
	plt.SetColParams("T", eplot.Off, eplot.FixMin, 0, eplot.FloatMax, 0)
	plt.SetColParams("x", eplot.On, eplot.FixMin, -1, eplot.FixMax, 1)
	plt.SetColParams("x0", eplot.On, eplot.FixMin, -1, eplot.FixMax, 1)
	plt.SetColParams("xo", eplot.On, eplot.FixMin, -1, eplot.FixMax, 1)
	return plt
}

// ConfigRasterPlot configures a spike raster plot of n neurons
func (ss *Sim) ConfigRasterPlot(plt *eplot.Plot2D, dt *etable.Table, n int) *eplot.Plot2D {
	plt.Params.Title = dt.MetaData["desc"]
	plt.Params.XAxisCol = "T"
	plt.Params.Lines = false
	plt.Params.Points = true
	plt.SetTable(dt)
	plt.SetColParams("T", eplot.Off, eplot.FixMin, 0, eplot.FloatMax, 0)
	plt.SetColParams("Idx", eplot.On, eplot.FixMin, 0, eplot.FixMax, float64(n-1))
	return plt
}

// UpdatePlots redraws all plots, from any goroutine
func (ss *Sim) UpdatePlots() {
	if ss.TracePlot != nil {
		ss.TracePlot.GoUpdate()
	}
	for _, plt := range ss.RasterPlots {
		plt.GoUpdate()
	}
}

// ConfigGui configures the GoGi gui interface for this simulation,
func (ss *Sim) ConfigGui() *gi.Window {
	title := "Smooth Pursuit"
	ss.GUI.MakeWindow(ss, "pursuit", title, `Interactive spiking model of smooth pursuit eye movements: change the sliders while it runs. See <a href="https://github.com/ccnlab/eyetrack/blob/main/sims/pursuit/README.md">README.md on GitHub</a>.</p>`)

	plt := ss.GUI.TabView.AddNewTab(eplot.KiT_Plot2D, "Eye").(*eplot.Plot2D)
	ss.TracePlot = ss.ConfigTracePlot(plt, ss.Table.State)
	ss.RasterPlots = nil
	for i, spm := range ss.Model.SpikeMonitors() {
		plt := ss.GUI.TabView.AddNewTab(eplot.KiT_Plot2D, spm.Name()).(*eplot.Plot2D)
		ss.RasterPlots = append(ss.RasterPlots, ss.ConfigRasterPlot(plt, ss.Table.Spikes[i], spm.Src.N))
	}
	ss.Table.OnUpdate = func(tb *figure.Table, batch driver.TraceBatch) {
		ss.UpdatePlots()
	}

	ss.GUI.StructView.ViewSig.Connect(ss.GUI.Win.This(), func(recv, send ki.Ki, sig int64, data interface{}) {
		ss.Controls.SetValues(ss.SliderValues())
	})

	ss.GUI.ToolBar.AddAction(gi.ActOpts{Label: "Start", Icon: "play",
		Tooltip: "Starts a run from the baseline state, or stops the current run at its next relay call.",
		UpdateFunc: func(act *gi.Action) {
			switch ss.Controller().State() {
			case driver.Idle:
				act.SetText("Start")
				act.SetIcon("play")
				act.SetActiveStateUpdt(true)
			case driver.Running:
				act.SetText("Stop")
				act.SetIcon("stop")
				act.SetActiveStateUpdt(true)
			default:
				act.SetText("Stopping")
				act.SetActiveStateUpdt(false)
			}
		}}, ss.GUI.Win.This(), func(recv, send ki.Ki, sig int64, data interface{}) {
		if !ss.Controller().IsRunning() {
			ss.Table.Reset()
			ss.UpdatePlots()
		}
		ss.Toggle()
	})

	ss.GUI.AddToolbarItem(egui.ToolbarItem{Label: "Init", Icon: "update",
		Tooltip: "Rebuilds the model from the current params, and resets the sliders and plots.",
		Active:  egui.ActiveStopped,
		Func: func() {
			if err := ss.Init(); err != nil {
				log.Println(err)
			}
			ss.UpdatePlots()
			ss.GUI.UpdateWindow()
		},
	})

	////////////////////////////////////////////////
	ss.GUI.ToolBar.AddSeparator("log")

	ss.GUI.AddToolbarItem(egui.ToolbarItem{Label: "Reset Plots",
		Icon:    "reset",
		Tooltip: "Clears the plots and logs.",
		Active:  egui.ActiveStopped,
		Func: func() {
			ss.Table.Reset()
			ss.UpdatePlots()
		},
	})
	ss.GUI.AddToolbarItem(egui.ToolbarItem{Label: "Save Logs",
		Icon:    "file-save",
		Tooltip: "Saves the logs of the last run as tab separated files, and a figure of it as png, in the log directory.",
		Active:  egui.ActiveStopped,
		Func: func() {
			if err := ss.SaveLogs(ss.RunName()); err != nil {
				log.Println(err)
			}
		},
	})

	////////////////////////////////////////////////
	ss.GUI.ToolBar.AddSeparator("misc")
	ss.GUI.AddToolbarItem(egui.ToolbarItem{Label: "README",
		Icon:    "file-markdown",
		Tooltip: "Opens your browser on the README file that contains instructions for how to run this model.",
		Active:  egui.ActiveAlways,
		Func: func() {
			gi.OpenURL("https://github.com/ccnlab/eyetrack/blob/main/sims/pursuit/README.md")
		},
	})
	ss.GUI.FinalizeGUI(false)
	return ss.GUI.Win
}

func (ss *Sim) RunGUI() {
	win := ss.ConfigGui()
	win.StartEventLoop()
	ss.Close()
}
