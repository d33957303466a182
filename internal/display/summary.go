package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/sereven/lmfit/internal/lm"
)

// Summary renders a styled result panel for one fit.
func Summary(problem string, res *lm.Result) string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s · %s", problem, res.Method)))
	sb.WriteString("\n")

	status := failStyle.Render("not converged")
	if res.Converged {
		status = okStyle.Render("converged")
	}

	rows := []struct{ label, value string }{
		{"status", status},
		{"iterations", fmt.Sprintf("%d", res.Iter)},
		{"ssr", fmt.Sprintf("%.6e", res.SSR)},
		{"x", formatVector(res.X)},
		{"x_converged", fmt.Sprintf("%v (xtol %.1e)", res.XConverged, res.XTol)},
		{"f_converged", fmt.Sprintf("%v (ftol %.1e)", res.FConverged, res.FTol)},
		{"gr_converged", fmt.Sprintf("%v (grtol %.1e)", res.GrConverged, res.GrTol)},
		{"f_calls", fmt.Sprintf("%d", res.FCalls)},
		{"g_calls", fmt.Sprintf("%d", res.GCalls)},
		{"mul_calls", fmt.Sprintf("%d", res.MulCalls)},
	}
	for _, r := range rows {
		sb.WriteString(labelStyle.Render(r.label))
		sb.WriteString(valueStyle.Render(r.value))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Convergence plots log10(ssr) per iteration as an ASCII chart.
func Convergence(trace lm.Trace, width, height int) string {
	if len(trace) < 2 {
		return ""
	}

	data := make([]float64, len(trace))
	for i, rec := range trace {
		data[i] = logSSR(rec.SSR)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10(ssr) vs iteration"),
	)
	return graphStyle.Render(graph)
}

// GradientCurve plots the gradient infinity norm per iteration.
func GradientCurve(trace lm.Trace, width, height int) string {
	if len(trace) < 2 {
		return ""
	}

	data := make([]float64, len(trace))
	for i, rec := range trace {
		data[i] = logSSR(rec.MaxAbsGr)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10(|grad|inf) vs iteration"),
	)
	return graphStyle.Render(graph)
}

// logSSR guards against exact zeros before taking the log.
func logSSR(v float64) float64 {
	if v < 1e-300 {
		v = 1e-300
	}
	return math.Log10(v)
}

func formatVector(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
