package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"alphaloop/internal/types"
)

// 中文说明：
// Binance 现货 K 线源，作为 market.vendor=binance 时的行情后端。
// Binance 的 symbol 不带斜杠（BTC/USDT -> BTCUSDT），interval 为小写短格式。

const maxKlineLimit = 1000

type Source struct {
	client *binance.Client
}

func New(timeout time.Duration) *Source {
	client := binance.NewClient("", "")
	client.HTTPClient.Timeout = timeout
	return &Source{client: client}
}

// GetBars 拉取指定回看区间内的 K 线。timeframe 使用 Alpaca 风格（5Min/1Hour/1Day），内部转换。
func (s *Source) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]types.Bar, error) {
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	interval, err := toInterval(timeframe)
	if err != nil {
		return nil, err
	}
	cleanSymbol := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
	if cleanSymbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	kls, err := s.client.NewKlinesService().
		Symbol(cleanSymbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines failed (%s): %w", symbol, err)
	}
	out := make([]types.Bar, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, types.Bar{
			Timestamp: time.UnixMilli(kl.OpenTime).UTC(),
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func toInterval(timeframe string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(timeframe)) {
	case "1min":
		return "1m", nil
	case "5min":
		return "5m", nil
	case "15min":
		return "15m", nil
	case "1hour":
		return "1h", nil
	case "1day":
		return "1d", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", timeframe)
	}
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
