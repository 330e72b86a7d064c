package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"alphaloop/internal/types"
)

const digestTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Daily Performance Digest</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; color: #333; max-width: 700px; margin: 0 auto; padding: 20px; }
h1 { font-weight: 300; }
.metric { display: inline-block; margin-right: 32px; }
.metric-value { display: block; font-size: 22px; font-weight: 600; }
.metric-label { color: #6c757d; font-size: 13px; }
table { width: 100%; border-collapse: collapse; margin: 16px 0; }
th, td { padding: 8px 10px; text-align: left; border-bottom: 1px solid #ddd; }
th { background: #f8f9fa; }
</style>
</head>
<body>
<h1>Daily Performance Digest</h1>
<p>{{.Date}}</p>
<div>
  <div class="metric"><span class="metric-value">{{.Perf.TotalTrades}}</span><span class="metric-label">Total Trades</span></div>
  <div class="metric"><span class="metric-value">{{.Perf.BuyDecisions}}</span><span class="metric-label">Buys</span></div>
  <div class="metric"><span class="metric-value">{{.Perf.SellDecisions}}</span><span class="metric-label">Sells</span></div>
  <div class="metric"><span class="metric-value">${{printf "%.2f" .Perf.TotalPnL}}</span><span class="metric-label">Total P&amp;L</span></div>
  <div class="metric"><span class="metric-value">{{printf "%.1f" .Perf.WinRate}}%</span><span class="metric-label">Win Rate</span></div>
</div>
{{if .Trades}}
<table>
  <tr><th>Time</th><th>Symbol</th><th>Decision</th><th>Shares</th><th>Order</th></tr>
  {{range .Trades}}
  <tr><td>{{.Time}}</td><td><strong>{{.Symbol}}</strong></td><td>{{.Decision}}</td><td>{{.Shares}}</td><td>{{.OrderStatus}}</td></tr>
  {{end}}
</table>
{{else}}<p>No trades recorded yet.</p>{{end}}
</body>
</html>`

var digestTmpl = template.Must(template.New("digest").Parse(digestTemplate))

type digestTradeRow struct {
	Time, Symbol, Decision, OrderStatus string
	Shares                              int64
}

func renderDigest(perf types.PerformanceSummary, trades []types.TradeRecord) ([]byte, error) {
	data := struct {
		Date   string
		Perf   types.PerformanceSummary
		Trades []digestTradeRow
	}{
		Date: time.Now().Format("January 2, 2006"),
		Perf: perf,
	}
	for _, t := range trades {
		data.Trades = append(data.Trades, digestTradeRow{
			Time:        t.Timestamp.Format("01/02 15:04"),
			Symbol:      t.Symbol,
			Decision:    t.Decision,
			Shares:      t.Shares,
			OrderStatus: t.OrderStatus,
		})
	}
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render digest failed: %w", err)
	}
	return buf.Bytes(), nil
}
