// Package report renders transition kernels for people: a coloured text table
// for terminals and an HTML chart comparing exact and sampled distributions.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/logrusorgru/aurora"
	"github.com/shopspring/decimal"
	"github.com/warp/foodtruck-engine/generic"
)

// Row is one (next state, reward) branch with its exact and, optionally,
// sampled probability.
type Row struct {
	Next      string
	Reward    decimal.Decimal
	Exact     float64
	Sampled   float64
	HasSample bool
}

// Table is a printable kernel for one (state, action).
type Table struct {
	Title  string
	Rows   []Row
	Colors bool
}

// FromKernel builds a table from an exact kernel and, when tally is non-nil,
// the sampled frequencies of the same (state, action). Outcomes that were
// sampled but have no exact mass still get a row.
func FromKernel[S comparable](title string, k *generic.Kernel[S], tally *generic.Tally[S], name func(S) string) Table {
	t := Table{Title: title}
	for _, b := range k.Transitions() {
		r := Row{Next: name(b.Next), Reward: b.Reward, Exact: float64(b.Probability)}
		if tally != nil {
			r.Sampled = float64(tally.Frequency(b.Next, b.Reward))
			r.HasSample = true
		}
		t.Rows = append(t.Rows, r)
	}
	if tally != nil {
		for _, o := range tally.Transitions() {
			if k.Probability(o.Next, o.Reward) == 0 {
				t.Rows = append(t.Rows, Row{Next: name(o.Next), Reward: o.Reward, Sampled: float64(o.Probability), HasSample: true})
			}
		}
	}
	return t
}

// Sort orders rows by next state, then reward.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].Next != t.Rows[j].Next {
			return t.Rows[i].Next < t.Rows[j].Next
		}
		return t.Rows[i].Reward.LessThan(t.Rows[j].Reward)
	})
}

// Render writes the table. Negative rewards are red, positive green.
func (t Table) Render(w io.Writer) error {
	au := aurora.NewAurora(t.Colors)

	if _, err := fmt.Fprintln(w, au.Bold(t.Title)); err != nil {
		return err
	}
	header := fmt.Sprintf("%-16s %10s %10s", "next", "reward", "p")
	if t.hasSamples() {
		header += fmt.Sprintf(" %10s", "sampled")
	}
	fmt.Fprintln(w, au.Cyan(header))

	total := 0.0
	for _, r := range t.Rows {
		reward := fmt.Sprintf("%10s", r.Reward.String())
		var colored aurora.Value
		switch {
		case r.Reward.IsNegative():
			colored = au.Red(reward)
		case r.Reward.IsPositive():
			colored = au.Green(reward)
		default:
			colored = au.Yellow(reward)
		}
		line := fmt.Sprintf("%-16s %s %10.4f", r.Next, colored, r.Exact)
		if r.HasSample {
			line += fmt.Sprintf(" %10.4f", r.Sampled)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		total += r.Exact
	}
	_, err := fmt.Fprintf(w, "%-16s %10s %10.4f\n", "total", "", total)
	return err
}

func (t Table) hasSamples() bool {
	for _, r := range t.Rows {
		if r.HasSample {
			return true
		}
	}
	return false
}
