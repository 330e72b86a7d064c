package types

// 中文说明：
// 订单提交所需的规格与结果。bracket/oco 订单通过 TakeProfit/StopLoss 子结构表达。

// OrderSide buy / sell。
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType 券商支持的订单类型。
type OrderType string

const (
	OrderMarket       OrderType = "market"
	OrderLimit        OrderType = "limit"
	OrderStop         OrderType = "stop"
	OrderStopLimit    OrderType = "stop_limit"
	OrderTrailingStop OrderType = "trailing_stop"
)

// OrderClass simple / bracket / oco。
type OrderClass string

const (
	ClassSimple  OrderClass = "simple"
	ClassBracket OrderClass = "bracket"
	ClassOCO     OrderClass = "oco"
)

// TakeProfitSpec 止盈子订单。
type TakeProfitSpec struct {
	LimitPrice float64 `json:"limit_price"`
}

// StopLossSpec 止损子订单。
type StopLossSpec struct {
	StopPrice float64 `json:"stop_price"`
}

// OrderSpec 一次订单提交的完整描述。
type OrderSpec struct {
	Symbol       string          `json:"symbol"`
	Qty          int64           `json:"qty"`
	Side         OrderSide       `json:"side"`
	Type         OrderType       `json:"type"`
	TimeInForce  string          `json:"time_in_force"`
	Class        OrderClass      `json:"order_class,omitempty"`
	LimitPrice   float64         `json:"limit_price,omitempty"`
	StopPrice    float64         `json:"stop_price,omitempty"`
	TrailPercent float64         `json:"trail_percent,omitempty"`
	TakeProfit   *TakeProfitSpec `json:"take_profit,omitempty"`
	StopLoss     *StopLossSpec   `json:"stop_loss,omitempty"`
}

// OrderResult 券商返回的订单回执。
type OrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Raw    string `json:"-"`
}
