package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"guardian/internal/guardian"
)

var (
	allowColor    = color.New(color.FgGreen, color.Bold)
	warnColor     = color.New(color.FgYellow)
	stepUpColor   = color.New(color.FgYellow, color.Bold)
	blockColor    = color.New(color.FgRed, color.Bold)
	lockdownColor = color.New(color.FgMagenta, color.Bold)
	okColor       = color.New(color.FgGreen)
	errColor      = color.New(color.FgRed)
)

func colorVerdict(v guardian.Verdict) string {
	switch v {
	case guardian.VerdictAllow:
		return allowColor.Sprint(v)
	case guardian.VerdictWarn:
		return warnColor.Sprint(v)
	case guardian.VerdictStepUp:
		return stepUpColor.Sprint(v)
	case guardian.VerdictBlock:
		return blockColor.Sprint(v)
	case guardian.VerdictLockdown:
		return lockdownColor.Sprint(v)
	default:
		return string(v)
	}
}

// colorVerdictString colors a verdict read back from the audit trail.
func colorVerdictString(s string) string {
	v, err := guardian.ParseVerdict(s)
	if err != nil {
		return s
	}
	return colorVerdict(v)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writePolicy prints weights and thresholds of p.
func writePolicy(w io.Writer, p guardian.Policy) error {
	if _, err := fmt.Fprintf(w, "Policy %s (hash %s)\n", p.Version, p.Hash()); err != nil {
		return err
	}

	var rows [][]string
	for _, layer := range guardian.SignalLayers() {
		rows = append(rows, []string{string(layer), fmtFloat(p.Weights[layer])})
	}
	if err := renderTable(w, []string{"Layer", "Weight"}, rows); err != nil {
		return err
	}

	settings := [][]string{
		{"warn threshold", fmtFloat(p.Thresholds.Warn)},
		{"step-up threshold", fmtFloat(p.Thresholds.StepUp)},
		{"block threshold", fmtFloat(p.Thresholds.Block)},
		{"min coverage", fmtFloat(p.MinCoverage)},
		{"hint bounds", fmtFloat(p.HintBounds.Min) + " - " + fmtFloat(p.HintBounds.Max)},
		{"stability step-up below", fmtFloat(p.Stability.StepUpBelow)},
		{"stability block below", fmtFloat(p.Stability.BlockBelow)},
		{"lockdown after blocks", strconv.Itoa(p.Lockdown.BlockThreshold)},
		{"lockdown window", p.Lockdown.Window.String()},
		{"lockdown duration", p.Lockdown.Duration.String()},
	}
	return renderTable(w, []string{"Setting", "Value"}, settings)
}
