package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"keyrank/internal/fusion"
	"keyrank/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func printReport(w io.Writer, name string, rep *service.Report) {
	fmt.Fprintln(w, titleStyle.Render(name))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("run %s  mode=%s  candidates=%d", rep.RunID, rep.Mode, rep.Candidates)))
	if len(rep.Results) == 0 {
		fmt.Fprintln(w, "  (no results)")
	}
	for i, r := range rep.Results {
		fmt.Fprintf(w, "%3d. %s  %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)), r.Text)
	}
	fmt.Fprintln(w)
}

func printFused(w io.Writer, fused []fusion.Fused) {
	if len(fused) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for i, f := range fused {
		fmt.Fprintf(w, "%3d. %s  %s %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.6f", f.Score)), f.ID,
			dimStyle.Render(fmt.Sprintf("(%d lists)", f.Sources)))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
