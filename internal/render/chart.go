// Package render draws a probability distribution as a terminal bar
// chart, one row per outcome in ascending order.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/louisbranch/probify/internal/dist"
	"github.com/louisbranch/probify/internal/stats"
)

// ErrEmptyDistribution indicates there is nothing to draw.
var ErrEmptyDistribution = errors.New("distribution has no outcomes")

var (
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boundStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// Options controls chart appearance.
type Options struct {
	// Width is the maximum bar width in cells; the most likely outcome
	// fills it and the rest scale proportionally.
	Width int
	// DecimalPoints is the precision of percentage labels.
	DecimalPoints int
	// MinLabelPercent suppresses labels for probabilities below this
	// percentage.
	MinLabelPercent float64
	// Interval, when set, marks the confidence bounds on the chart and
	// appends a footer describing the interval.
	Interval *stats.Interval
}

const defaultWidth = 40

// Chart renders d as a text bar chart.
func Chart(d dist.Dist, opts Options) (string, error) {
	outcomes := d.Outcomes()
	if len(outcomes) == 0 {
		return "", ErrEmptyDistribution
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	maxProb := 0.0
	for _, x := range outcomes {
		if p := d.Prob(x); p > maxProb {
			maxProb = p
		}
	}

	var b strings.Builder
	for _, x := range outcomes {
		p := d.Prob(x)
		cells := int(p / maxProb * float64(width))
		if cells == 0 && p > 0 {
			cells = 1
		}

		fmt.Fprintf(&b, "%6d ", x)
		b.WriteString(barStyle.Render(strings.Repeat("█", cells)))

		if percent := p * 100; percent >= opts.MinLabelPercent {
			b.WriteString(" ")
			b.WriteString(labelStyle.Render(fmt.Sprintf("%.*f%%", opts.DecimalPoints, percent)))
		}
		if opts.Interval != nil && (x == opts.Interval.Lower || x == opts.Interval.Upper) {
			b.WriteString(" ")
			b.WriteString(boundStyle.Render("◄"))
		}
		b.WriteString("\n")
	}

	if opts.Interval != nil {
		footer := fmt.Sprintf("%.0f%% confidence interval: [%d, %d]",
			opts.Interval.Level*100, opts.Interval.Lower, opts.Interval.Upper)
		b.WriteString(footerStyle.Render(footer))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// SummaryTable renders summary statistics as aligned label/value rows.
func SummaryTable(summary stats.Summary, decimalPoints int) string {
	rows := []struct {
		label string
		value string
	}{
		{"Median", fmt.Sprintf("%d", summary.Median)},
		{"Mean", fmt.Sprintf("%.*f", decimalPoints, summary.Mean)},
		{"Std Dev", fmt.Sprintf("%.*f", decimalPoints, summary.StdDev)},
		{"Minimum", fmt.Sprintf("%d", summary.Min)},
		{"Maximum", fmt.Sprintf("%d", summary.Max)},
	}
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", row.label)), row.value)
	}
	return b.String()
}
