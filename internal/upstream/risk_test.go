package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRiskMessage_RawVocabulary(t *testing.T) {
	cases := []string{
		"请求过于频繁，请稍后再试",
		"触发风控，拒绝访问",
		"风险校验未通过",
		"账号校验失败",
	}
	for _, msg := range cases {
		assert.True(t, IsRiskMessage(msg), msg)
	}
}

func TestIsRiskMessage_EscapedVocabulary(t *testing.T) {
	// Some layers reject with the JSON body still escaped.
	cases := []string{
		`{"code":-352,"message":"风控校验失败"}`,
		`request 频繁`,
		`风险 detected`,
	}
	for _, msg := range cases {
		assert.True(t, IsRiskMessage(msg), msg)
	}
}

func TestIsRiskMessage_English(t *testing.T) {
	assert.True(t, IsRiskMessage("429 Too Many Requests"))
	assert.True(t, IsRiskMessage("Risk Verification required"))
	assert.True(t, IsRiskMessage("blocked by risk control"))
	assert.True(t, IsRiskMessage("requests are too FREQUENT"))
}

func TestIsRiskMessage_Negative(t *testing.T) {
	cases := []string{
		"",
		"invalid parameter",
		"archive not found",
		"code=-404 message=啥都木有",
		"connection refused",
	}
	for _, msg := range cases {
		assert.False(t, IsRiskMessage(msg), msg)
	}
}
