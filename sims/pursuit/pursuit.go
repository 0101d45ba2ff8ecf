// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pursuit is an interactive simulation of smooth pursuit eye movements,
// driven by a small spiking network.  The three sliders can be changed
// while the simulation runs, and take effect at the next relay call.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ccnlab/eyetrack/driver"
	"github.com/ccnlab/eyetrack/figure"
	"github.com/ccnlab/eyetrack/pursuit"
	"github.com/ccnlab/eyetrack/snapdb"
	"github.com/emer/emergent/econfig"
	"github.com/emer/emergent/egui"
	"github.com/emer/emergent/timer"
	"github.com/emer/empi/mpi"
	"github.com/emer/etable/eplot"
	"github.com/goki/gi/gimain"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
)

func main() {
	sim := &Sim{}
	sim.New()
	sim.ConfigAll()
	switch {
	case sim.Config.GUI:
		if sim.Config.Serve.Addr != "" {
			go sim.Serve()
		}
		gimain.Main(sim.RunGUI)
	case sim.Config.Serve.Addr != "":
		sim.Serve()
		sim.Close()
	default:
		sim.RunNoGUI()
	}
}

// Sim encapsulates the entire simulation model, and we define all the
// functionality as methods on this struct.  This structure keeps all relevant
// state information organized and available without having to pass everything around
// as arguments to methods, and provides the core GUI interface (note the view tags
// for the fields which provide hints to how things should be displayed).
type Sim struct {
	Config   Config             `desc:"simulation configuration parameters -- set by .toml config file and / or args"`
	Params   pursuit.Params     `view:"no-inline" desc:"model parameters -- applied by Init"`
	Sliders  driver.Values      `desc:"slider values -- take effect at the next relay call while running -- guarded by mu"`
	Stats    pursuit.Stats      `view:"inline" desc:"tracking statistics of the last run -- guarded by mu"`
	Model    *pursuit.Model     `view:"-" desc:"the spiking model"`
	Controls *driver.Controls   `view:"-" desc:"sliders and stop request shared with the running simulation"`
	Relay    *driver.Relay      `view:"-" desc:"relays slider values into the model and data out to the figures"`
	Table    *figure.Table      `view:"-" desc:"eye trace and spike logs, shown in the plots"`
	Hub      *figure.Hub        `view:"-" desc:"websocket hub, if serving"`
	DB       *snapdb.DB         `view:"-" desc:"snapshot database, if configured"`

	GUI         egui.GUI        `view:"-" desc:"manages all the gui elements"`
	TracePlot   *eplot.Plot2D   `view:"-" desc:"eye and object positions"`
	RasterPlots []*eplot.Plot2D `view:"-" desc:"spike rasters"`

	ctx    context.Context
	cancel context.CancelFunc
	ctrl   atomic.Pointer[driver.Controller]
	mu     sync.Mutex
	initMu sync.Mutex
}

// this registers this Sim Type and gives it properties that e.g.,
// prompt for args when calling methods
var KiT_Sim = kit.Types.AddType(&Sim{}, SimProps)

// New creates new blank elements and initializes defaults
func (ss *Sim) New() {
	econfig.Config(&ss.Config, "config.toml")
	ss.Params.Defaults()
	if err := SetParams(&ss.Params, ss.Config.Params.Set, ss.Config.Params.Model, ss.Config.Debug); err != nil {
		log.Println(err)
	}
	ss.Controls = driver.NewControls()
	ss.ctx, ss.cancel = context.WithCancel(context.Background())
}

////////////////////////////////////////////////////////////////////////////////////////////
// 		Configs

// ConfigAll configures all the elements using the standard functions
func (ss *Sim) ConfigAll() {
	if ss.Config.Snap.DB != "" {
		db, err := snapdb.Open(ss.Config.Snap.DB)
		if err != nil {
			log.Println(err)
		} else {
			ss.DB = db
		}
	}
	if ss.Config.Serve.Addr != "" {
		ss.Hub = figure.NewHub(ss, nil)
	}
	ss.Controls.TauMuscle.OnChange = ss.sliderChanged
	ss.Controls.TauObject.OnChange = ss.sliderChanged
	ss.Controls.Gain.OnChange = ss.sliderChanged
	if err := ss.Init(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// Init builds a new model from Params, and resets the sliders and logs.
// It does nothing while running.
func (ss *Sim) Init() error {
	ss.initMu.Lock()
	defer ss.initMu.Unlock()
	if ctrl := ss.ctrl.Load(); ctrl != nil && ctrl.IsRunning() {
		return driver.ErrBusy
	}
	ss.Params.Update()
	m, err := pursuit.New(ss.Params)
	if err != nil {
		return err
	}
	ss.Model = m
	ss.ConfigSnap()

	vals := driver.Values{TauMuscle: ss.Params.TauMuscle, TauObject: ss.Params.TauObject, Gain: ss.Params.Gain}
	ss.Controls.SetValues(vals)
	ss.Controls.ClearStop()

	if ss.Table == nil {
		sm := m.StateMonitor()
		var cols []string
		for v := range sm.Vars {
			cols = append(cols, sm.ColName(v, 0))
		}
		var spks []string
		for _, spm := range m.SpikeMonitors() {
			spks = append(spks, spm.Name())
		}
		ss.Table = figure.NewTable(cols, spks)
	}
	ss.Table.Reset()
	ss.mu.Lock()
	ss.Sliders = vals
	ss.Stats = pursuit.Stats{}
	ss.mu.Unlock()

	figs := figure.Multi{ss.Table, driver.FigureFunc(func(batch driver.TraceBatch) error {
		return ss.runStats(m, batch)
	})}
	if ss.Hub != nil {
		figs = append(figs, ss.Hub)
	}
	ss.Relay = driver.NewRelay(ss.Controls, m, figs)
	ss.Relay.Period = ss.Config.Run.Period
	if err := ss.Relay.Attach(); err != nil {
		return err
	}
	ctrl := driver.NewController(m, ss.Controls, ss.Relay, pursuit.Baseline, ss.Config.Run.Duration)
	ctrl.RestoreRandom = ss.Config.Run.RestoreRandom
	ctrl.OnStateChange = func(st driver.RunState) {
		ss.stateChanged(ctrl, st)
	}
	ss.ctrl.Store(ctrl)
	return nil
}

// Controller returns the run controller, replaced by each Init
func (ss *Sim) Controller() *driver.Controller {
	return ss.ctrl.Load()
}

// SliderValues returns the slider values shown in the GUI
func (ss *Sim) SliderValues() driver.Values {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.Sliders
}

// RunStats returns the statistics of the last completed run
func (ss *Sim) RunStats() pursuit.Stats {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.Stats
}

// ConfigSnap replaces the baseline snapshot of the model with the one saved in
// the snapshot database, or saves it there if the database has none.
func (ss *Sim) ConfigSnap() {
	if ss.DB == nil {
		return
	}
	nm := ss.Config.Snap.Name
	net := ss.Model.Net
	err := ss.DB.Import(ss.ctx, net, nm)
	if err == nil && nm != pursuit.Baseline {
		snap, _ := net.Snapshot(nm)
		err = net.Load(pursuit.Baseline, snap)
	}
	switch {
	case err == nil:
		mpi.Printf("Loaded baseline %q from: %s\n", nm, ss.DB.Path())
		return
	case errors.Is(err, snapdb.ErrNotFound):
	default:
		log.Println(err)
	}
	snap, _ := net.Snapshot(pursuit.Baseline)
	if err := ss.DB.Save(ss.ctx, nm, snap); err != nil {
		log.Println(err)
	}
}

// sliderChanged keeps the slider values shown in the GUI in sync with changes made elsewhere
func (ss *Sim) sliderChanged(sl *driver.Slider, val float64) {
	vals := ss.Controls.Values()
	ss.mu.Lock()
	ss.Sliders = vals
	ss.mu.Unlock()
	if ss.GUI.Win != nil {
		ss.GUI.UpdateWindow()
	}
}

// runStats computes the statistics at the end of each run
func (ss *Sim) runStats(m *pursuit.Model, batch driver.TraceBatch) error {
	if !batch.Final {
		return nil
	}
	st := m.Stats()
	ss.mu.Lock()
	ss.Stats = st
	ss.mu.Unlock()
	return nil
}

// stateChanged is called by the controller on every change of its state
func (ss *Sim) stateChanged(ctrl *driver.Controller, st driver.RunState) {
	if ss.Hub != nil {
		ss.Hub.Notify(st)
	}
	if st == driver.Idle {
		if err := ctrl.LastErr(); err != nil {
			log.Println(err)
		}
	}
	if ss.GUI.Win == nil {
		return
	}
	ss.GUI.IsRunning = st != driver.Idle
	ss.GUI.ToolBar.UpdateActions()
	ss.GUI.UpdateWindow()
}

// SetControl sets the named slider, for remote clients
func (ss *Sim) SetControl(name string, val float64) (float64, error) {
	return ss.Controls.Set(name, val)
}

// Toggle starts a run, or stops the current one
func (ss *Sim) Toggle() {
	ss.initMu.Lock()
	defer ss.initMu.Unlock()
	ss.ctrl.Load().Toggle(ss.ctx)
}

// SaveLogs saves the logs of the last run, and a figure of it,
// to the log directory under the given name.
func (ss *Sim) SaveLogs(name string) error {
	return ss.saveRun(name, true, true)
}

func (ss *Sim) saveRun(name string, csv, png bool) error {
	dir := ss.Config.Log.Dir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var errs []error
	if csv {
		fnms, err := ss.Table.SaveCSV(dir, name)
		if err != nil {
			errs = append(errs, err)
		}
		for _, fnm := range fnms {
			mpi.Printf("Saved log: %s\n", fnm)
		}
	}
	if png {
		fnm := filepath.Join(dir, name+".png")
		if err := figure.NewPNG(ss.RunName()).Save(ss.Table, fnm); err != nil {
			errs = append(errs, err)
		} else {
			mpi.Printf("Saved figure: %s\n", fnm)
		}
	}
	return errors.Join(errs...)
}

// RunName returns a name for the logs of the current params
func (ss *Sim) RunName() string {
	vals := ss.Controls.Values()
	return fmt.Sprintf("pursuit_%s_tm%g_to%g_g%g", ss.Config.Params.Set, vals.TauMuscle, vals.TauObject, vals.Gain)
}

////////////////////////////////////////////////////////////////////////////////////////////
// 		NoGUI

func (ss *Sim) RunNoGUI() {
	if ss.Config.Params.Note != "" {
		mpi.Printf("Note: %s\n", ss.Config.Params.Note)
	}
	mpi.Printf("Running %d Runs of %g msec, params: %s\n", ss.Config.Run.NRuns, ss.Config.Run.Duration, ss.Config.Params.Set)

	ctrl := ss.Controller()
	tmr := timer.Time{}
	for run := 0; run < ss.Config.Run.NRuns; run++ {
		ss.Table.Reset()
		tmr.Start()
		if err := ctrl.Start(ss.ctx); err != nil {
			log.Println(err)
			break
		}
		err := ctrl.Wait()
		tmr.Stop()
		if err != nil {
			log.Println(err)
			break
		}
		st := ss.RunStats()
		mpi.Printf("Run: %d\tTrackErr: %.4g\tCorr: %.4g\tRetina: %d\tMotor: %d (L %d, R %d)\n",
			run, st.TrackErr, st.Corr, st.RetinaSpikes, st.MotorSpikes, st.LeftSpikes, st.RightSpikes)
		if ss.Config.Log.SaveCSV || ss.Config.Log.SavePNG {
			name := fmt.Sprintf("%s_%03d", ss.RunName(), run)
			if err := ss.saveRun(name, ss.Config.Log.SaveCSV, ss.Config.Log.SavePNG); err != nil {
				log.Println(err)
			}
		}
	}
	fmt.Printf("Total Time: %6.3g\n", tmr.TotalSecs())
	ss.Close()
}

// Close stops everything and closes the snapshot database
func (ss *Sim) Close() {
	if ctrl := ss.Controller(); ctrl != nil {
		if err := ctrl.Cancel(); err != nil && !errors.Is(err, context.Canceled) {
			log.Println(err)
		}
	}
	ss.cancel()
	if ss.DB != nil {
		if err := ss.DB.Close(); err != nil {
			log.Println(err)
		}
	}
}

var SimProps = ki.Props{
	"CallMethods": ki.PropSlice{
		{"SaveLogs", ki.Props{
			"desc": "save the logs and a figure of the last run to the log directory",
			"icon": "file-save",
			"Args": ki.PropSlice{
				{"Name", ki.Props{}},
			},
		}},
	},
}
