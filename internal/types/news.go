package types

import "time"

// NewsSentiment positive / negative / neutral。
type NewsSentiment string

const (
	SentimentPositive NewsSentiment = "positive"
	SentimentNegative NewsSentiment = "negative"
	SentimentNeutral  NewsSentiment = "neutral"
)

// NewsItem 单条个股新闻。
type NewsItem struct {
	Title     string        `json:"title"`
	Summary   string        `json:"summary"`
	Source    string        `json:"source"`
	URL       string        `json:"url"`
	Sentiment NewsSentiment `json:"sentiment"`
	Timestamp time.Time     `json:"timestamp"`
}

// MarketSentiment 大盘情绪摘要。
type MarketSentiment struct {
	Summary   string        `json:"summary"`
	Sentiment NewsSentiment `json:"sentiment"`
	KeyLevels []string      `json:"key_levels,omitempty"`
	Source    string        `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
}
