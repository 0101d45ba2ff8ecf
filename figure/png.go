// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package figure

import (
	"fmt"
	"image/color"
	"os"

	"github.com/emer/etable/etable"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PNG renders a Table as a figure with the state traces on top
// and a spike raster below.
type PNG struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// NewPNG returns a renderer with a default size
func NewPNG(title string) *PNG {
	return &PNG{Title: title, Width: 8 * vg.Inch, Height: 6 * vg.Inch}
}

// Plots returns the trace and raster plots of tb
func (pn *PNG) Plots(tb *Table) (*plot.Plot, *plot.Plot, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	trace := plot.New()
	trace.Title.Text = pn.Title
	trace.X.Label.Text = "Time (ms)"
	trace.Y.Label.Text = "Position"
	dt := tb.State
	if dt.Rows > 0 {
		for ci, cnm := range tb.stateCols {
			ln, err := plotter.NewLine(colXYs(dt, "T", cnm, 0))
			if err != nil {
				return nil, nil, fmt.Errorf("figure: %s line: %w", cnm, err)
			}
			ln.LineStyle.Color = plotutil.Color(ci)
			ln.LineStyle.Width = vg.Points(1)
			trace.Add(ln)
			trace.Legend.Add(cnm, ln)
		}
	}
	trace.Legend.Top = true

	raster := plot.New()
	raster.X.Label.Text = "Time (ms)"
	raster.Y.Label.Text = "Neuron"
	off := 0.0
	for si, sdt := range tb.Spikes {
		n := sdt.Rows
		if n > 0 {
			sc, err := plotter.NewScatter(colXYs(sdt, "T", "Idx", off))
			if err != nil {
				return nil, nil, fmt.Errorf("figure: %s raster: %w", sdt.MetaData["name"], err)
			}
			sc.GlyphStyle.Color = plotutil.Color(si)
			sc.GlyphStyle.Radius = vg.Points(1)
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			raster.Add(sc)
			raster.Legend.Add(sdt.MetaData["name"], sc)
		}
		n = tb.spikeN[si]
		if n == 0 {
			n = int(maxIdx(sdt)) + 1
		}
		off += float64(n) + 1
	}
	raster.Add(plotter.NewGrid())
	return trace, raster, nil
}

// Save writes the figure of tb to a PNG file
func (pn *PNG) Save(tb *Table, fname string) error {
	trace, raster, err := pn.Plots(tb)
	if err != nil {
		return err
	}
	img := vgimg.New(pn.Width, pn.Height)
	dc := draw.New(img)
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
	cvs := plot.Align([][]*plot.Plot{{trace}, {raster}}, tiles, dc)
	trace.Draw(cvs[0][0])
	raster.Draw(cvs[1][0])

	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("figure: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("figure: writing %s: %w", fname, err)
	}
	return f.Close()
}

func colXYs(dt *etable.Table, xcol, ycol string, yoff float64) plotter.XYs {
	xys := make(plotter.XYs, dt.Rows)
	for r := range xys {
		xys[r].X = dt.CellFloat(xcol, r)
		xys[r].Y = dt.CellFloat(ycol, r) + yoff
	}
	return xys
}

func maxIdx(dt *etable.Table) float64 {
	mx := 0.0
	for r := 0; r < dt.Rows; r++ {
		if v := dt.CellFloat("Idx", r); v > mx {
			mx = v
		}
	}
	return mx
}
