package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 中文说明：
// 独立的 LLM 请求/响应转储：与常规日志分离，便于排查提示词与模型输出。

var (
	llmMu  sync.Mutex
	llmLog *log.Logger
)

// SetLLMWriter enables LLM payload dumping to w. Pass nil to disable.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func dumpLLM(header string, sections map[string]string, order []string) {
	llmMu.Lock()
	l := llmLog
	llmMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, title := range order {
		body := sections[title]
		if strings.TrimSpace(body) == "" {
			continue
		}
		b.WriteString("--- " + title + " ---\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogLLMRequest dumps one outbound decision prompt.
func LogLLMRequest(symbol, systemPrompt, userPrompt string) {
	dumpLLM("[LLM][REQUEST]["+symbol+"]",
		map[string]string{"SYSTEM": systemPrompt, "USER": userPrompt},
		[]string{"SYSTEM", "USER"})
}

// LogLLMResponse dumps one model reply together with the parsed label.
func LogLLMResponse(symbol, raw, parsed string) {
	dumpLLM("[LLM][RESPONSE]["+symbol+"]",
		map[string]string{"RAW": raw, "PARSED": parsed},
		[]string{"RAW", "PARSED"})
}
