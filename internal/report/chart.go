package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"alphaloop/internal/cycle"
)

const (
	colorProfit = "#34d399"
	colorLoss   = "#f87171"
)

// renderPnLChart 生成各持仓浮动盈亏的柱状图页面，作为报告的伴生文件。
func renderPnLChart(state *cycle.State) ([]byte, error) {
	if len(state.Positions) == 0 {
		return nil, nil
	}
	type entry struct {
		Symbol string
		PnL    float64
	}
	positions := make([]entry, 0, len(state.Positions))
	for _, p := range state.Positions {
		positions = append(positions, entry{p.Symbol, p.UnrealizedPL})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	xAxis := make([]string, 0, len(positions))
	series := make([]opts.BarData, 0, len(positions))
	for _, p := range positions {
		xAxis = append(xAxis, p.Symbol)
		color := colorProfit
		if p.PnL < 0 {
			color = colorLoss
		}
		series = append(series, opts.BarData{
			Value:     p.PnL,
			ItemStyle: &opts.ItemStyle{Color: color},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Unrealized P&L by Position"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "USD"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "760px", Height: "360px"}),
	)
	bar.SetXAxis(xAxis)
	bar.AddSeries("Unrealized P&L", series)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render pnl chart failed: %w", err)
	}
	return buf.Bytes(), nil
}
