package config

// 中文说明：
// alphaloop 主配置。分区与 yaml 文件一一对应；字段默认值见 defaults.go。

type Config struct {
	App     AppConfig     `toml:"app"`
	Loop    LoopConfig    `toml:"loop"`
	Broker  BrokerConfig  `toml:"broker"`
	Market  MarketConfig  `toml:"market"`
	AI      AIConfig      `toml:"ai"`
	News    NewsConfig    `toml:"news"`
	Store   StoreConfig   `toml:"store"`
	Report  ReportConfig  `toml:"report"`
	Prompt  PromptConfig  `toml:"prompt"`
	Trading TradingConfig `toml:"trading"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
	// AutoStart 为 true 时进程启动后立即开启连续循环。
	AutoStart bool `toml:"auto_start"`
}

// LoopConfig 控制周期节奏与扇出并发。
type LoopConfig struct {
	IntervalSeconds  int `toml:"interval_seconds"`
	CooldownSeconds  int `toml:"cooldown_seconds"`
	MaxConcurrency   int `toml:"max_concurrency"`
	BreakerThreshold int `toml:"breaker_threshold"`
	BreakerTimeoutS  int `toml:"breaker_timeout_seconds"`
}

// BrokerConfig 券商（Alpaca）访问配置。密钥可用环境变量覆盖。
type BrokerConfig struct {
	BaseURL        string `toml:"base_url"`
	DataURL        string `toml:"data_url"`
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MarketConfig 行情源配置。vendor 支持 alpaca / binance。
type MarketConfig struct {
	Vendor         string `toml:"vendor"`
	LookbackHours  int    `toml:"lookback_hours"`
	Timeframe      string `toml:"timeframe"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AIConfig 决策模型（OpenAI 兼容 chat completions）配置。
type AIConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

type NewsConfig struct {
	FeedURL        string `toml:"feed_url"`
	MarketURL      string `toml:"market_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxItems       int    `toml:"max_items"`
}

type StoreConfig struct {
	SQLitePath string `toml:"sqlite_path"`
	// DecisionLogPath AI 决策审计日志（独立 sqlite 文件），留空则不记录。
	DecisionLogPath string `toml:"decision_log_path"`
	HistoryLimit    int    `toml:"history_limit"`
}

type ReportConfig struct {
	SMTPHost    string `toml:"smtp_host"`
	SMTPPort    int    `toml:"smtp_port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	From        string `toml:"from"`
	To          string `toml:"to"`
	ArtifactDir string `toml:"artifact_dir"`
	// DailyCron 每日绩效摘要的 cron 表达式（标准五段，robfig/cron）。
	DailyCron string `toml:"daily_cron"`
}

type PromptConfig struct {
	// OverridesPath 可选的提示词覆盖文件（yaml），变更后热加载。
	OverridesPath string `toml:"overrides_path"`
}

// TradingConfig 订单价格偏移的启发式参数。
// 数值均为百分数（5 = 5%）；默认值即决策表的标准偏移。
type TradingConfig struct {
	BracketEntryDiscountPct float64 `toml:"bracket_entry_discount_pct"`
	BracketTargetPct        float64 `toml:"bracket_target_pct"`
	BracketStopPct          float64 `toml:"bracket_stop_pct"`
	BracketMaxShares        int64   `toml:"bracket_max_shares"`
	LimitBuyDiscountPct     float64 `toml:"limit_buy_discount_pct"`
	LimitBuyMaxShares       int64   `toml:"limit_buy_max_shares"`
	LimitSellPremiumPct     float64 `toml:"limit_sell_premium_pct"`
	TrailBuyPct             float64 `toml:"trail_buy_pct"`
	TrailSellPct            float64 `toml:"trail_sell_pct"`
	StopLossPct             float64 `toml:"stop_loss_pct"`
	OCOTierHighPLPC         float64 `toml:"oco_tier_high_plpc"`
	OCOTierMidPLPC          float64 `toml:"oco_tier_mid_plpc"`
	OCOHighOffsetPct        float64 `toml:"oco_high_offset_pct"`
	OCOMidOffsetPct         float64 `toml:"oco_mid_offset_pct"`
	OCOBaseOffsetPct        float64 `toml:"oco_base_offset_pct"`
}
