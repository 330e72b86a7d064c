package news

import (
	"strings"

	"alphaloop/internal/types"
)

// 中文说明：
// 关键词情绪分类器。对标题+摘要做大小写不敏感的词面匹配，
// 正负词各计一分，净分定极性；无命中即 neutral。

var positiveWords = []string{
	"beat", "beats", "surge", "surges", "rally", "rallies", "gain", "gains",
	"record", "upgrade", "upgraded", "strong", "growth", "profit", "bullish",
	"outperform", "soar", "soars", "jump", "jumps", "rise", "rises", "high",
}

var negativeWords = []string{
	"miss", "misses", "fall", "falls", "drop", "drops", "plunge", "plunges",
	"downgrade", "downgraded", "weak", "loss", "losses", "bearish", "lawsuit",
	"recall", "layoff", "layoffs", "cut", "cuts", "decline", "declines", "low",
}

// Classify 依据关键词净分返回 positive / negative / neutral。
func Classify(title, summary string) types.NewsSentiment {
	text := strings.ToLower(title + " " + summary)
	score := 0
	for _, w := range positiveWords {
		if containsWord(text, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if containsWord(text, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return types.SentimentPositive
	case score < 0:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// containsWord 词边界匹配，避免 "cut" 命中 "execute" 这类子串。
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isLetter(text[start-1])
		rightOK := end == len(text) || !isLetter(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
