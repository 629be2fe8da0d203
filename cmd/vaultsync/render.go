package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	// https://github.com/muesli/termenv/blob/master/ansicolors.go
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	bold  = lipgloss.NewStyle().Bold(true)
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q, expected text, json or yaml", format)
}

func renderReport(w io.Writer, report *reconcile.Report, format string) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprint(w, reportText(report))
		return err
	}
}

func reportText(r *reconcile.Report) string {
	var out string

	if r.DryRun {
		out += bold.Render("Dry run") + gray.Render(" (nothing changed)") + "\n"
		out += fmt.Sprintf("  %s %d\n", cyan.Render("to upload"), r.Planned.Uploads)
		out += fmt.Sprintf("  %s %d\n", red.Render("to delete"), r.Planned.Deletions)
	} else {
		out += bold.Render("Sync complete") + "\n"
		out += fmt.Sprintf("  %s %d (%s)\n", green.Render("uploaded"), r.Uploaded, humanize.Bytes(uint64(r.BytesUploaded)))
		out += fmt.Sprintf("  %s %d\n", green.Render("deleted"), r.Deleted)
	}
	out += fmt.Sprintf("  %s %d\n", gray.Render("unchanged"), r.Skipped)
	out += gray.Render(fmt.Sprintf("  local %d, remote %d, %s", r.Local, r.Remote, r.Duration.Round(time.Millisecond))) + "\n"

	if r.HasFailures() {
		out += red.Render(fmt.Sprintf("Failed %d", r.Failed())) + "\n"
		for _, f := range r.Failures {
			out += fmt.Sprintf("  %s %s %s\n", red.Render(string(f.Op)), f.Key, gray.Render(f.Error))
		}
	}

	return out
}
