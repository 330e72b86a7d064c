package dispatch

import (
	"context"

	"alphaloop/internal/config"
	"alphaloop/internal/decision"
	"alphaloop/internal/logger"
	"alphaloop/internal/types"
)

// 中文说明：
// 订单派发器。逐个 symbol 执行决策（串行，避免同账户并发下单），
// 前置条件不满足时降级为 HOLD，下单失败只影响该 symbol。

// Broker 下单通道，由 Alpaca 网关实现。
type Broker interface {
	SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error)
}

// Action 单个 symbol 的执行结果。Label 是实际动作：
// 前置条件不满足时为 HOLD，Reason 记录原因。
type Action struct {
	Symbol string
	Label  decision.Label
	Shares int64
	Order  *types.OrderResult
	Reason string
	Err    error
}

type Dispatcher struct {
	broker Broker
	cfg    config.TradingConfig
}

func NewDispatcher(broker Broker, cfg config.TradingConfig) *Dispatcher {
	return &Dispatcher{broker: broker, cfg: cfg}
}

// ExecuteAll 按结果序依次执行。返回的动作与输入一一对应。
func (d *Dispatcher) ExecuteAll(ctx context.Context, account types.Account, results []decision.Result, positions map[string]types.Position) []Action {
	actions := make([]Action, 0, len(results))
	for _, res := range results {
		action := d.execute(ctx, account, res, positions[res.Symbol])
		if action.Err != nil {
			logger.Errorf("下单失败 symbol=%s decision=%s err=%v", action.Symbol, res.Label, action.Err)
		} else if action.Label != decision.Hold {
			logger.Infof("决策执行完成 symbol=%s action=%s shares=%d", action.Symbol, action.Label, action.Shares)
		}
		actions = append(actions, action)
	}
	return actions
}

func (d *Dispatcher) execute(ctx context.Context, account types.Account, res decision.Result, pos types.Position) Action {
	price := pos.CurrentPrice
	switch res.Label {
	case decision.BracketBuy:
		entry := offsetPrice(price, d.cfg.BracketEntryDiscountPct, false)
		if account.Cash <= entry*2 {
			return holdAction(res.Symbol, "Insufficient cash for bracket buy")
		}
		shares := minShares(d.cfg.BracketMaxShares, affordableShares(account.Cash, entry))
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         shares,
			Side:        types.SideBuy,
			Type:        types.OrderLimit,
			TimeInForce: "gtc",
			Class:       types.ClassBracket,
			LimitPrice:  entry,
			TakeProfit:  &types.TakeProfitSpec{LimitPrice: offsetPrice(price, d.cfg.BracketTargetPct, true)},
			StopLoss:    &types.StopLossSpec{StopPrice: offsetPrice(price, d.cfg.BracketStopPct, false)},
		}
		return d.submit(ctx, res.Label, spec)

	case decision.LimitBuy:
		limit := offsetPrice(price, d.cfg.LimitBuyDiscountPct, false)
		if account.Cash <= limit*2 {
			return holdAction(res.Symbol, "Cash insufficient for limit buy")
		}
		shares := minShares(d.cfg.LimitBuyMaxShares, affordableShares(account.Cash, limit))
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         shares,
			Side:        types.SideBuy,
			Type:        types.OrderLimit,
			TimeInForce: "gtc",
			LimitPrice:  limit,
		}
		return d.submit(ctx, res.Label, spec)

	case decision.TrailingStopBuy:
		if pos.Qty <= 0 {
			return holdAction(res.Symbol, "No position to protect")
		}
		// 名为 buy，实际挂的是保护既有多头的跟踪止损卖单。
		spec := types.OrderSpec{
			Symbol:       res.Symbol,
			Qty:          pos.Qty,
			Side:         types.SideSell,
			Type:         types.OrderTrailingStop,
			TimeInForce:  "day",
			TrailPercent: d.cfg.TrailBuyPct,
		}
		return d.submit(ctx, res.Label, spec)

	case decision.OCOSell:
		if pos.Qty <= 0 {
			return holdAction(res.Symbol, "No position to sell")
		}
		tp, sl := d.ocoPrices(price, pos.UnrealizedPLPC)
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         pos.Qty,
			Side:        types.SideSell,
			Type:        types.OrderLimit,
			TimeInForce: "gtc",
			Class:       types.ClassOCO,
			TakeProfit:  &types.TakeProfitSpec{LimitPrice: tp},
			StopLoss:    &types.StopLossSpec{StopPrice: sl},
		}
		return d.submit(ctx, res.Label, spec)

	case decision.LimitSell:
		if pos.Qty <= 0 {
			return holdAction(res.Symbol, "No position to sell")
		}
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         pos.Qty,
			Side:        types.SideSell,
			Type:        types.OrderLimit,
			TimeInForce: "gtc",
			LimitPrice:  offsetPrice(price, d.cfg.LimitSellPremiumPct, true),
		}
		return d.submit(ctx, res.Label, spec)

	case decision.TrailingStopSell:
		if pos.Qty <= 0 {
			return holdAction(res.Symbol, "No position to protect")
		}
		spec := types.OrderSpec{
			Symbol:       res.Symbol,
			Qty:          pos.Qty,
			Side:         types.SideSell,
			Type:         types.OrderTrailingStop,
			TimeInForce:  "day",
			TrailPercent: d.cfg.TrailSellPct,
		}
		return d.submit(ctx, res.Label, spec)

	case decision.StopLoss:
		if pos.Qty <= 0 {
			return holdAction(res.Symbol, "No position to protect")
		}
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         pos.Qty,
			Side:        types.SideSell,
			Type:        types.OrderStop,
			TimeInForce: "gtc",
			StopPrice:   offsetPrice(price, d.cfg.StopLossPct, false),
		}
		return d.submit(ctx, res.Label, spec)

	case decision.ReducePosition:
		if pos.Qty <= 1 {
			return holdAction(res.Symbol, "Position too small to reduce")
		}
		spec := types.OrderSpec{
			Symbol:      res.Symbol,
			Qty:         pos.Qty / 2,
			Side:        types.SideSell,
			Type:        types.OrderMarket,
			TimeInForce: "gtc",
		}
		return d.submit(ctx, res.Label, spec)

	default:
		return Action{Symbol: res.Symbol, Label: decision.Hold, Reason: res.Reason}
	}
}

// ocoPrices 按当前浮盈分档：盈利越多，止盈/止损越贴近现价。
func (d *Dispatcher) ocoPrices(price, plpc float64) (takeProfit, stopLoss float64) {
	switch {
	case plpc > d.cfg.OCOTierHighPLPC:
		return offsetPrice(price, d.cfg.OCOHighOffsetPct, true), offsetPrice(price, d.cfg.OCOHighOffsetPct, false)
	case plpc > d.cfg.OCOTierMidPLPC:
		return offsetPrice(price, d.cfg.OCOMidOffsetPct, true), offsetPrice(price, d.cfg.OCOMidOffsetPct, false)
	default:
		return offsetPrice(price, d.cfg.OCOBaseOffsetPct, true), offsetPrice(price, d.cfg.OCOBaseOffsetPct, false)
	}
}

func (d *Dispatcher) submit(ctx context.Context, label decision.Label, spec types.OrderSpec) Action {
	order, err := d.broker.SubmitOrder(ctx, spec)
	if err != nil {
		return Action{Symbol: spec.Symbol, Label: label, Shares: spec.Qty, Err: err}
	}
	return Action{Symbol: spec.Symbol, Label: label, Shares: spec.Qty, Order: order}
}

func holdAction(symbol, reason string) Action {
	return Action{Symbol: symbol, Label: decision.Hold, Reason: reason}
}
