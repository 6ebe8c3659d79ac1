package upstream

import "strings"

// riskTokens is the fixed vocabulary that marks a rate-limit or
// bot-detection rejection. Both the raw strings and their \u-escaped forms
// appear in upstream bodies depending on which layer rejected the call.
var riskTokens = []string{
	"请求过于频繁",
	"频繁",
	"风控",
	"风险",
	"风险校验",
	"校验失败",
	`\u9891\u7e41`,
	`\u98ce\u63a7`,
	`\u98ce\u9669`,
	`\u6821\u9a8c\u5931\u8d25`,
	"too many requests",
	"frequent",
	"risk verification",
	"risk control",
}

// IsRiskMessage classifies a failure body or message as a risk rejection.
// Anything else is a generic upstream failure and must not trigger the
// alternative fetch rungs.
func IsRiskMessage(msg string) bool {
	lowered := strings.ToLower(msg)
	for _, token := range riskTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
