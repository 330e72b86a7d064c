package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"alphaloop/internal/cycle"
	"alphaloop/internal/decision"
	"alphaloop/internal/types"
)

// 报告正文模板。样式内联，保证邮件客户端与本地文件都能正常展示。
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Trading Cycle Report</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; background: #f8f9fa; padding: 20px; }
.container { background: #fff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); overflow: hidden; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #fff; padding: 30px; text-align: center; }
.header h1 { margin: 0; font-size: 28px; font-weight: 300; }
.section { padding: 24px 30px; border-bottom: 1px solid #eee; }
.section h2 { color: #2c3e50; font-size: 20px; margin-bottom: 16px; }
.metric { display: inline-block; margin-right: 32px; }
.metric-value { display: block; font-size: 22px; font-weight: 600; }
.metric-label { color: #6c757d; font-size: 13px; }
table { width: 100%; border-collapse: collapse; margin: 12px 0; }
th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #ddd; }
th { background: #f8f9fa; color: #495057; }
.buy { color: #28a745; font-weight: 600; }
.sell { color: #dc3545; font-weight: 600; }
.hold { color: #6c757d; }
.reasoning { background: #f8f9fa; border-left: 4px solid #667eea; padding: 12px 16px; margin: 10px 0; white-space: pre-line; }
.no-data { color: #6c757d; font-style: italic; }
.footer { background: #343a40; color: #fff; padding: 16px; text-align: center; font-size: 13px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Trading Cycle Report</h1>
    <p>Generated on {{.GeneratedAt}}</p>
    <p>Cycle {{.TraceID}} · duration {{.Duration}}</p>
  </div>

  <div class="section">
    <h2>Account Summary</h2>
    <div class="metric"><span class="metric-value">${{printf "%.2f" .Account.Cash}}</span><span class="metric-label">Cash Balance</span></div>
    <div class="metric"><span class="metric-value">${{printf "%.2f" .Account.BuyingPower}}</span><span class="metric-label">Buying Power</span></div>
    <div class="metric"><span class="metric-value">{{len .Positions}}</span><span class="metric-label">Positions</span></div>
    <div class="metric"><span class="metric-value">{{.Performance.TotalTrades}}</span><span class="metric-label">Total Trades</span></div>
    <div class="metric"><span class="metric-value">{{printf "%.1f" .Performance.WinRate}}%</span><span class="metric-label">Win Rate</span></div>
  </div>

  <div class="section">
    <h2>Pending Orders</h2>
    {{if .OpenOrders}}
    <table>
      <tr><th>Symbol</th><th>Type</th><th>Side</th><th>Qty</th><th>Price</th><th>Status</th></tr>
      {{range .OpenOrders}}
      <tr><td><strong>{{.Symbol}}</strong></td><td>{{.Type}}</td><td>{{.Side}}</td><td>{{.Qty}}</td><td>{{.PriceDisplay}}</td><td>{{.Status}}</td></tr>
      {{end}}
    </table>
    {{else}}<p class="no-data">No pending orders.</p>{{end}}
  </div>

  <div class="section">
    <h2>Trading Decisions</h2>
    {{if .Decisions}}
    {{range .Decisions}}<div class="{{.Class}}"><strong>{{.Symbol}}:</strong> {{.Label}}</div>{{end}}
    {{else}}<p class="no-data">No decisions made this cycle.</p>{{end}}
  </div>

  <div class="section">
    <h2>Actions Taken</h2>
    {{if .Actions}}
    {{range .Actions}}<div class="{{.Class}}"><strong>{{.Symbol}}:</strong> {{.Label}}{{if .Detail}} — {{.Detail}}{{end}}</div>{{end}}
    {{else}}<p class="no-data">No actions taken this cycle.</p>{{end}}
  </div>

  <div class="section">
    <h2>Market Intelligence</h2>
    {{if .Market}}
    <p><strong>Sentiment:</strong> {{.Market.Sentiment}}</p>
    <p>{{.Market.Summary}}</p>
    {{else}}<p class="no-data">No market intelligence available.</p>{{end}}
    {{if .News}}
    <ul>{{range .News}}<li><strong>{{.Symbol}}:</strong> {{.Title}} ({{.Sentiment}})</li>{{end}}</ul>
    {{end}}
  </div>

  <div class="section">
    <h2>AI Reasoning</h2>
    {{if .Reasoning}}
    {{range .Reasoning}}<h3>{{.Symbol}}</h3><div class="reasoning">{{.Text}}</div>{{end}}
    {{else}}<p class="no-data">No detailed reasoning available.</p>{{end}}
  </div>

  {{if .ChartLink}}
  <div class="section">
    <h2>P&amp;L Chart</h2>
    <p><a href="{{.ChartLink}}">Open interactive unrealized P&amp;L chart</a></p>
  </div>
  {{end}}

  <div class="footer"><p>alphaloop · automated market analysis and execution</p></div>
</div>
</body>
</html>`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type orderRow struct {
	Symbol, Type, Side, Status, PriceDisplay string
	Qty                                      int64
}

type labelRow struct {
	Symbol, Label, Class, Detail string
}

type newsRow struct {
	Symbol, Title string
	Sentiment     types.NewsSentiment
}

type reasoningRow struct {
	Symbol, Text string
}

type reportData struct {
	GeneratedAt string
	TraceID     string
	Duration    string
	Account     types.Account
	Positions   []types.Position
	Performance types.PerformanceSummary
	OpenOrders  []orderRow
	Decisions   []labelRow
	Actions     []labelRow
	Market      *types.MarketSentiment
	News        []newsRow
	Reasoning   []reasoningRow
	ChartLink   string
}

// renderHTML 把周期状态渲染为报告正文。
func renderHTML(state *cycle.State, perf types.PerformanceSummary, chartLink string) ([]byte, error) {
	data := reportData{
		GeneratedAt: time.Now().Format("January 2, 2006 at 3:04 PM"),
		TraceID:     state.TraceID,
		Duration:    state.Duration.Round(time.Millisecond).String(),
		Account:     state.Account,
		Positions:   state.Positions,
		Performance: perf,
		Market:      state.Market,
		ChartLink:   chartLink,
	}
	for _, o := range state.OpenOrders {
		data.OpenOrders = append(data.OpenOrders, orderRow{
			Symbol:       o.Symbol,
			Type:         o.Type,
			Side:         o.Side,
			Qty:          o.Qty,
			Status:       o.Status,
			PriceDisplay: priceDisplay(o),
		})
	}
	for _, res := range state.Results {
		data.Decisions = append(data.Decisions, labelRow{
			Symbol: res.Symbol,
			Label:  string(res.Label),
			Class:  labelClass(res.Label),
		})
		data.Reasoning = append(data.Reasoning, reasoningRow{
			Symbol: res.Symbol,
			Text:   buildReasoning(res, state.Analyses[res.Symbol]),
		})
	}
	for _, action := range state.Actions {
		row := labelRow{
			Symbol: action.Symbol,
			Label:  string(action.Label),
			Class:  labelClass(action.Label),
		}
		switch {
		case action.Err != nil:
			row.Detail = fmt.Sprintf("failed: %v", action.Err)
		case action.Reason != "":
			row.Detail = action.Reason
		case action.Shares > 0:
			row.Detail = fmt.Sprintf("%d shares", action.Shares)
		}
		data.Actions = append(data.Actions, row)
	}
	symbols := make([]string, 0, len(state.Analyses))
	for sym := range state.Analyses {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		for _, item := range state.Analyses[sym].News {
			data.News = append(data.News, newsRow{Symbol: sym, Title: item.Title, Sentiment: item.Sentiment})
		}
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report failed: %w", err)
	}
	return buf.Bytes(), nil
}

func priceDisplay(o types.Order) string {
	switch {
	case o.LimitPrice > 0:
		return fmt.Sprintf("Limit: $%.2f", o.LimitPrice)
	case o.StopPrice > 0:
		return fmt.Sprintf("Stop: $%.2f", o.StopPrice)
	default:
		return "Market"
	}
}

func labelClass(l decision.Label) string {
	switch {
	case l.IsBuy():
		return "buy"
	case l.IsSell():
		return "sell"
	default:
		return "hold"
	}
}
