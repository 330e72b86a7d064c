package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"alphaloop/internal/logger"
	"alphaloop/internal/types"
)

// 中文说明：
// 新闻服务：个股新闻走 Yahoo Finance RSS，大盘情绪从财经页面标题抓取。
// 任一来源失败都只影响本轮上下文，调用方以"无新闻"继续。

// Config 新闻源配置。FeedURL 须含一个 %s 占位符（symbol）。
type Config struct {
	FeedURL   string
	MarketURL string
	Timeout   time.Duration
	MaxItems  int
}

type Service struct {
	cfg    Config
	client *resty.Client
}

func NewService(cfg Config) *Service {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 3
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; alphaloop/1.0)")
	return &Service{cfg: cfg, client: client}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// SymbolNews 拉取个股最新新闻并做情绪标注，最多返回 MaxItems 条。
func (s *Service) SymbolNews(ctx context.Context, symbol string) ([]types.NewsItem, error) {
	url := fmt.Sprintf(s.cfg.FeedURL, symbol)
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("news feed request failed (%s): %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news feed request failed (%s): status=%d", symbol, resp.StatusCode())
	}
	var feed rssFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("news feed parse failed (%s): %w", symbol, err)
	}
	items := feed.Channel.Items
	if len(items) > s.cfg.MaxItems {
		items = items[:s.cfg.MaxItems]
	}
	out := make([]types.NewsItem, 0, len(items))
	for _, item := range items {
		ts, _ := parsePubDate(item.PubDate)
		source := strings.TrimSpace(item.Source)
		if source == "" {
			source = "Yahoo Finance"
		}
		out = append(out, types.NewsItem{
			Title:     strings.TrimSpace(item.Title),
			Summary:   strings.TrimSpace(item.Description),
			Source:    source,
			URL:       strings.TrimSpace(item.Link),
			Sentiment: Classify(item.Title, item.Description),
			Timestamp: ts,
		})
	}
	logger.Debugf("新闻抓取完成 symbol=%s count=%d", symbol, len(out))
	return out, nil
}

// MarketSentiment 抓取大盘页面头条，聚合为一条整体情绪摘要。
func (s *Service) MarketSentiment(ctx context.Context) (*types.MarketSentiment, error) {
	if s.cfg.MarketURL == "" {
		return nil, fmt.Errorf("market url not configured")
	}
	resp, err := s.client.R().SetContext(ctx).Get(s.cfg.MarketURL)
	if err != nil {
		return nil, fmt.Errorf("market page request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market page request failed: status=%d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("market page parse failed: %w", err)
	}
	var headlines []string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 20 {
			headlines = append(headlines, text)
		}
		return len(headlines) < 5
	})
	if len(headlines) == 0 {
		return nil, fmt.Errorf("no headlines found on market page")
	}
	pos, neg := 0, 0
	for _, h := range headlines {
		switch Classify(h, "") {
		case types.SentimentPositive:
			pos++
		case types.SentimentNegative:
			neg++
		}
	}
	overall := types.SentimentNeutral
	switch {
	case pos > neg:
		overall = types.SentimentPositive
	case neg > pos:
		overall = types.SentimentNegative
	}
	return &types.MarketSentiment{
		Summary:   strings.Join(headlines, " | "),
		Sentiment: overall,
		Source:    s.cfg.MarketURL,
		Timestamp: time.Now(),
	}, nil
}

func parsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate: %s", raw)
}
