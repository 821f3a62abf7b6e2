package coord

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotRDF saves a plot of the radial distribution function g, against the
// distances r, to the file plotname.png. r and g are meant to come from
// RDF, but any pair of slices of matching length works.
func PlotRDF(r, g []float64, title, plotname string) error {
	if len(r) != len(g) || len(r) == 0 {
		return Error{fmt.Sprintf("Mismatched or empty data for the plot: %d distances, %d g values", len(r), len(g)), []string{"coord.PlotRDF"}}
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "r"
	p.Y.Label.Text = "g(r)"
	p.X.Min = 0
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(r))
	for i := range r {
		pts[i].X = r[i]
		pts[i].Y = g[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return Error{err.Error(), []string{"coord.PlotRDF"}}
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)
	filename := fmt.Sprintf("%s.png", plotname)
	if err := p.Save(4*vg.Inch, 4*vg.Inch, filename); err != nil {
		return Error{err.Error(), []string{"coord.PlotRDF"}}
	}
	return nil
}
