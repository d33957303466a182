// Package export writes convergence charts to image files.
package export

import (
	"github.com/sereven/lmfit/internal/lm"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ConvergencePNG plots SSR and gradient infinity norm against iteration on
// a log scale and saves the chart to path.
func ConvergencePNG(title string, trace lm.Trace, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "ssr / |grad|inf"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	ssr := make(plotter.XYs, len(trace))
	gr := make(plotter.XYs, len(trace))
	for i, rec := range trace {
		ssr[i].X = float64(rec.Iter)
		ssr[i].Y = clampPositive(rec.SSR)
		gr[i].X = float64(rec.Iter)
		gr[i].Y = clampPositive(rec.MaxAbsGr)
	}

	ssrLine, err := plotter.NewLine(ssr)
	if err != nil {
		return err
	}
	grLine, err := plotter.NewLine(gr)
	if err != nil {
		return err
	}
	grLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(ssrLine, grLine)
	p.Legend.Add("ssr", ssrLine)
	p.Legend.Add("|grad|inf", grLine)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// clampPositive keeps values representable on a log axis.
func clampPositive(v float64) float64 {
	if v < 1e-300 {
		return 1e-300
	}
	return v
}
