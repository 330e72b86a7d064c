package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"alphaloop/internal/logger"
	"alphaloop/internal/pkg/convert"
	"alphaloop/internal/types"
)

// 中文说明：
// Alpaca 券商网关。交易接口走 BaseURL（paper/live 由配置决定），
// 行情接口走 DataURL。Alpaca 返回的数字多为字符串，统一经 convert 收敛。

// Config 网关连接参数。
type Config struct {
	BaseURL   string
	DataURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client 封装 Alpaca REST v2 的账户、持仓、行情与下单操作。
type Client struct {
	trading *resty.Client
	data    *resty.Client
}

func NewClient(cfg Config) *Client {
	newClient := func(base string) *resty.Client {
		c := resty.New().
			SetBaseURL(base).
			SetTimeout(cfg.Timeout).
			SetHeader("APCA-API-KEY-ID", cfg.APIKey).
			SetHeader("APCA-API-SECRET-KEY", cfg.APISecret).
			SetHeader("Accept", "application/json")
		return c
	}
	return &Client{
		trading: newClient(cfg.BaseURL),
		data:    newClient(cfg.DataURL),
	}
}

// GetAccount 拉取账户快照。失败时调用方应中止本轮周期。
func (c *Client) GetAccount(ctx context.Context) (*types.Account, error) {
	resp, err := c.trading.R().SetContext(ctx).Get("/v2/account")
	if err != nil {
		return nil, fmt.Errorf("alpaca account request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca account request failed: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	body := resp.String()
	acct := &types.Account{
		Cash:        convert.ToFloat64(gjson.Get(body, "cash").Value()),
		BuyingPower: convert.ToFloat64(gjson.Get(body, "buying_power").Value()),
		Equity:      convert.ToFloat64(gjson.Get(body, "equity").Value()),
	}
	return acct, nil
}

// GetPositions 拉取全部持仓。unrealized_plpc 从小数转为百分数（0.06 -> 6.0）。
func (c *Client) GetPositions(ctx context.Context) ([]types.Position, error) {
	resp, err := c.trading.R().SetContext(ctx).Get("/v2/positions")
	if err != nil {
		return nil, fmt.Errorf("alpaca positions request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca positions request failed: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	var out []types.Position
	gjson.Parse(resp.String()).ForEach(func(_, item gjson.Result) bool {
		out = append(out, types.Position{
			Symbol:         item.Get("symbol").String(),
			Qty:            convert.ToInt64(item.Get("qty").Value()),
			AvgEntryPrice:  convert.ToFloat64(item.Get("avg_entry_price").Value()),
			CurrentPrice:   convert.ToFloat64(item.Get("current_price").Value()),
			UnrealizedPL:   convert.ToFloat64(item.Get("unrealized_pl").Value()),
			UnrealizedPLPC: convert.ToFloat64(item.Get("unrealized_plpc").Value()) * 100,
		})
		return true
	})
	return out, nil
}

// GetOpenOrders 拉取未完结订单，供提示词展示当前挂单。
func (c *Client) GetOpenOrders(ctx context.Context) ([]types.Order, error) {
	resp, err := c.trading.R().
		SetContext(ctx).
		SetQueryParam("status", "open").
		Get("/v2/orders")
	if err != nil {
		return nil, fmt.Errorf("alpaca orders request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca orders request failed: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	var out []types.Order
	gjson.Parse(resp.String()).ForEach(func(_, item gjson.Result) bool {
		out = append(out, types.Order{
			ID:         item.Get("id").String(),
			Symbol:     item.Get("symbol").String(),
			Side:       item.Get("side").String(),
			Type:       item.Get("type").String(),
			Qty:        convert.ToInt64(item.Get("qty").Value()),
			LimitPrice: convert.ToFloat64(item.Get("limit_price").Value()),
			StopPrice:  convert.ToFloat64(item.Get("stop_price").Value()),
			Status:     item.Get("status").String(),
		})
		return true
	})
	return out, nil
}

// GetBars 拉取指定时间段的 K 线。返回空序列不视为错误，由调用方决定剔除或回退。
func (c *Client) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]types.Bar, error) {
	resp, err := c.data.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"timeframe": timeframe,
			"start":     start.UTC().Format(time.RFC3339),
			"end":       end.UTC().Format(time.RFC3339),
			"limit":     fmt.Sprintf("%d", limit),
			"feed":      "iex",
		}).
		Get(fmt.Sprintf("/v2/stocks/%s/bars", symbol))
	if err != nil {
		return nil, fmt.Errorf("alpaca bars request failed (%s): %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca bars request failed (%s): status=%d body=%s", symbol, resp.StatusCode(), truncate(resp.String(), 200))
	}
	var bars []types.Bar
	gjson.Get(resp.String(), "bars").ForEach(func(_, item gjson.Result) bool {
		ts, _ := time.Parse(time.RFC3339, item.Get("t").String())
		bars = append(bars, types.Bar{
			Timestamp: ts,
			Open:      item.Get("o").Float(),
			High:      item.Get("h").Float(),
			Low:       item.Get("l").Float(),
			Close:     item.Get("c").Float(),
			Volume:    item.Get("v").Float(),
		})
		return true
	})
	return bars, nil
}

// SubmitOrder 提交订单。复合订单（bracket/oco）与跟踪止损由 OrderSpec 字段决定。
func (c *Client) SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error) {
	body := buildOrderBody(spec)
	resp, err := c.trading.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v2/orders")
	if err != nil {
		return nil, fmt.Errorf("alpaca order submit failed (%s): %w", spec.Symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca order rejected (%s): status=%d body=%s", spec.Symbol, resp.StatusCode(), truncate(resp.String(), 300))
	}
	raw := resp.String()
	result := &types.OrderResult{
		ID:     gjson.Get(raw, "id").String(),
		Status: gjson.Get(raw, "status").String(),
		Raw:    raw,
	}
	logger.Infof("订单提交成功 symbol=%s side=%s type=%s id=%s status=%s", spec.Symbol, spec.Side, spec.Type, result.ID, result.Status)
	return result, nil
}

func buildOrderBody(spec types.OrderSpec) map[string]any {
	body := map[string]any{
		"symbol":        spec.Symbol,
		"qty":           fmt.Sprintf("%d", spec.Qty),
		"side":          string(spec.Side),
		"type":          string(spec.Type),
		"time_in_force": spec.TimeInForce,
	}
	if spec.Class != "" && spec.Class != types.ClassSimple {
		body["order_class"] = string(spec.Class)
	}
	if spec.LimitPrice > 0 {
		body["limit_price"] = fmt.Sprintf("%.2f", spec.LimitPrice)
	}
	if spec.StopPrice > 0 {
		body["stop_price"] = fmt.Sprintf("%.2f", spec.StopPrice)
	}
	if spec.TrailPercent > 0 {
		body["trail_percent"] = fmt.Sprintf("%g", spec.TrailPercent)
	}
	if spec.TakeProfit != nil {
		body["take_profit"] = map[string]string{"limit_price": fmt.Sprintf("%.2f", spec.TakeProfit.LimitPrice)}
	}
	if spec.StopLoss != nil {
		body["stop_loss"] = map[string]string{"stop_price": fmt.Sprintf("%.2f", spec.StopLoss.StopPrice)}
	}
	return body
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
