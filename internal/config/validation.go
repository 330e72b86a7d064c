package config

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// settingsSchema 约束配置文件的顶层结构，拦截拼写错误的分区名。
const settingsSchema = `{
  "type": "object",
  "properties": {
    "include": {"type": "array", "items": {"type": "string"}},
    "app":     {"type": "object"},
    "loop":    {"type": "object"},
    "broker":  {"type": "object"},
    "market":  {"type": "object"},
    "ai":      {"type": "object"},
    "news":    {"type": "object"},
    "store":   {"type": "object"},
    "report":  {"type": "object"},
    "prompt":  {"type": "object"},
    "trading": {"type": "object"}
  },
  "additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("config.schema.json", settingsSchema)

func validateSettings(settings map[string]any) error {
	if err := compiledSchema.Validate(normalize(settings)); err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}
	return nil
}

// normalize 把 viper 产出的 map[string]any 递归转成 jsonschema 可接受的纯类型。
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

func validate(c *Config) error {
	var problems []string
	if c.Broker.APIKey == "" || c.Broker.APISecret == "" {
		problems = append(problems, "broker api_key/api_secret 未配置")
	}
	if c.AI.APIKey == "" {
		problems = append(problems, "ai api_key 未配置")
	}
	switch c.Market.Vendor {
	case "alpaca", "binance":
	default:
		problems = append(problems, fmt.Sprintf("market vendor 不支持: %s", c.Market.Vendor))
	}
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("app log_level 非法: %s", c.App.LogLevel))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
