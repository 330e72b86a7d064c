package config

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "paper"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8086"
	}
	if c.Loop.IntervalSeconds <= 0 {
		c.Loop.IntervalSeconds = 300
	}
	if c.Loop.CooldownSeconds <= 0 {
		c.Loop.CooldownSeconds = 60
	}
	if c.Loop.MaxConcurrency <= 0 {
		c.Loop.MaxConcurrency = 5
	}
	if c.Loop.BreakerThreshold <= 0 {
		c.Loop.BreakerThreshold = 3
	}
	if c.Loop.BreakerTimeoutS <= 0 {
		c.Loop.BreakerTimeoutS = 600
	}
	if c.Broker.BaseURL == "" {
		c.Broker.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Broker.DataURL == "" {
		c.Broker.DataURL = "https://data.alpaca.markets"
	}
	if c.Broker.TimeoutSeconds <= 0 {
		c.Broker.TimeoutSeconds = 15
	}
	if c.Market.Vendor == "" {
		c.Market.Vendor = "alpaca"
	}
	if c.Market.LookbackHours <= 0 {
		c.Market.LookbackHours = 24
	}
	if c.Market.Timeframe == "" {
		c.Market.Timeframe = "5Min"
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 15
	}
	if c.AI.APIURL == "" {
		c.AI.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = 3
	}
	if c.News.FeedURL == "" {
		c.News.FeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	}
	if c.News.TimeoutSeconds <= 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.News.MaxItems <= 0 {
		c.News.MaxItems = 3
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/alphaloop.db"
	}
	if c.Store.DecisionLogPath == "" {
		c.Store.DecisionLogPath = "data/decision_log.db"
	}
	if c.Store.HistoryLimit <= 0 {
		c.Store.HistoryLimit = 50
	}
	if c.Report.ArtifactDir == "" {
		c.Report.ArtifactDir = "reports"
	}
	if c.Report.SMTPPort <= 0 {
		c.Report.SMTPPort = 587
	}
	c.Trading.applyDefaults()
}

// DefaultTradingConfig 返回决策表的标准偏移参数。
func DefaultTradingConfig() TradingConfig {
	var t TradingConfig
	t.applyDefaults()
	return t
}

func (t *TradingConfig) applyDefaults() {
	if t.BracketEntryDiscountPct <= 0 {
		t.BracketEntryDiscountPct = 0.5
	}
	if t.BracketTargetPct <= 0 {
		t.BracketTargetPct = 5
	}
	if t.BracketStopPct <= 0 {
		t.BracketStopPct = 3
	}
	if t.BracketMaxShares <= 0 {
		t.BracketMaxShares = 10
	}
	if t.LimitBuyDiscountPct <= 0 {
		t.LimitBuyDiscountPct = 2
	}
	if t.LimitBuyMaxShares <= 0 {
		t.LimitBuyMaxShares = 5
	}
	if t.LimitSellPremiumPct <= 0 {
		t.LimitSellPremiumPct = 2
	}
	if t.TrailBuyPct <= 0 {
		t.TrailBuyPct = 2
	}
	if t.TrailSellPct <= 0 {
		t.TrailSellPct = 3
	}
	if t.StopLossPct <= 0 {
		t.StopLossPct = 5
	}
	if t.OCOTierHighPLPC <= 0 {
		t.OCOTierHighPLPC = 5
	}
	if t.OCOTierMidPLPC <= 0 {
		t.OCOTierMidPLPC = 2
	}
	if t.OCOHighOffsetPct <= 0 {
		t.OCOHighOffsetPct = 2
	}
	if t.OCOMidOffsetPct <= 0 {
		t.OCOMidOffsetPct = 3
	}
	if t.OCOBaseOffsetPct <= 0 {
		t.OCOBaseOffsetPct = 5
	}
}
