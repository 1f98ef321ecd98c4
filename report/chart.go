package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Chart renders a bar chart with one "exact" and one "sampled" series per
// (next state, reward) branch.
func Chart(w io.Writer, t Table) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    t.Title,
			Subtitle: "exact kernel vs. sampled frequencies",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	labels := make([]string, 0, len(t.Rows))
	exact := make([]opts.BarData, 0, len(t.Rows))
	sampled := make([]opts.BarData, 0, len(t.Rows))
	for _, r := range t.Rows {
		labels = append(labels, fmt.Sprintf("%s r=%s", r.Next, r.Reward.String()))
		exact = append(exact, opts.BarData{Value: r.Exact})
		sampled = append(sampled, opts.BarData{Value: r.Sampled})
	}

	bar.SetXAxis(labels).AddSeries("exact", exact)
	if t.hasSamples() {
		bar.AddSeries("sampled", sampled)
	}

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
