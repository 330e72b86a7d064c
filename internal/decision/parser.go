package decision

import "strings"

// parseOrder 标签按优先级匹配：先出现在表里的先判。
// 同义词排在标准标签之后，只有模型没写出标准标签时才生效。
var parseOrder = []struct {
	token string
	label Label
}{
	{"BRACKET_BUY", BracketBuy},
	{"LIMIT_BUY", LimitBuy},
	{"TRAILING_STOP_BUY", TrailingStopBuy},
	{"OCO_SELL", OCOSell},
	{"LIMIT_SELL", LimitSell},
	{"TRAILING_STOP_SELL", TrailingStopSell},
	{"STOP_LOSS", StopLoss},
	{"REDUCE_POSITION", ReducePosition},
	{"BUY_MORE", BracketBuy},
	{"SELL_PARTIAL", OCOSell},
	{"SELL_ALL", OCOSell},
}

// Parse 从模型自由文本中提取决策标签。大小写不敏感，
// 任何标签都未命中时返回 HOLD。
func Parse(raw string) Label {
	text := strings.ToUpper(raw)
	for _, entry := range parseOrder {
		if strings.Contains(text, entry.token) {
			return entry.label
		}
	}
	return Hold
}
