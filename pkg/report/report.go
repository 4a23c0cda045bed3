// Package report renders inventory snapshots for people to read.
//
// Plain output is the fixed items report:
//
//	Items Report
//	apple -> 7
//	pear -> 2
//
// Styled output uses the same lines with lipgloss colours and highlights
// items below a low-stock threshold.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/stockroom/pkg/inventory"
)

// Color palette
var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	mutedGray  = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	arrowStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	lowStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)
)

type options struct {
	styled    bool
	threshold *int
	filter    *Filter
}

// Option configures Write.
type Option func(*options)

// WithStyle turns lipgloss styling on or off.
func WithStyle(styled bool) Option {
	return func(o *options) {
		o.styled = styled
	}
}

// WithLowThreshold marks items whose quantity is below threshold.
func WithLowThreshold(threshold int) Option {
	return func(o *options) {
		o.threshold = &threshold
	}
}

// WithFilter restricts the report to names the filter matches.
func WithFilter(f *Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// Write renders items to w. Items are written in the order given; pass a
// sorted snapshot such as inventory.Store.Items.
func Write(w io.Writer, items []inventory.Item, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	selected := make([]inventory.Item, 0, len(items))
	for _, it := range items {
		if o.filter.Match(it.Name) {
			selected = append(selected, it)
		}
	}

	if !o.styled && o.threshold == nil {
		return inventory.WriteReport(w, selected)
	}

	header := inventory.ReportHeader
	if o.styled {
		header = headerStyle.Render(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, it := range selected {
		if _, err := fmt.Fprintln(w, o.line(it)); err != nil {
			return err
		}
	}
	return nil
}

func (o options) line(it inventory.Item) string {
	low := o.threshold != nil && it.Quantity < *o.threshold

	if !o.styled {
		line := fmt.Sprintf("%s -> %d", it.Name, it.Quantity)
		if low {
			line += " (low)"
		}
		return line
	}

	qty := fmt.Sprintf("%d", it.Quantity)
	if low {
		qty = lowStyle.Render(qty + " (low)")
	}
	return fmt.Sprintf("%s %s %s", nameStyle.Render(it.Name), arrowStyle.Render("->"), qty)
}
