package upstream

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const fingerSpiURL = "https://api.bilibili.com/x/frontend/finger/spi"

type fingerEnvelope struct {
	Code int `json:"code"`
	Data struct {
		B3 string `json:"b_3"`
		B4 string `json:"b_4"`
	} `json:"data"`
}

// assembleCookie produces the runtime cookie for signed calls: the
// operator-configured cookie when present, otherwise the two buvid tokens
// from the free fingerprint endpoint. b_nut and _uuid are injected whenever
// the assembled cookie lacks them.
func (f *Fetcher) assembleCookie(ctx context.Context) (string, error) {
	cookie := f.conf.Upstream.Cookie
	if cookie == "" {
		var env fingerEnvelope
		err := f.client.GetJSON(ctx, Request{
			URL:     f.FingerURL,
			Referer: "https://www.bilibili.com/",
		}, &env)
		if err != nil {
			return "", err
		}
		cookie = fmt.Sprintf("buvid3=%s; buvid4=%s", env.Data.B3, env.Data.B4)
	}
	return supplementCookie(cookie), nil
}

func supplementCookie(cookie string) string {
	if !strings.Contains(cookie, "b_nut=") {
		cookie += "; b_nut=" + strconv.FormatInt(time.Now().Unix(), 10)
	}
	if !strings.Contains(cookie, "_uuid=") {
		cookie += "; _uuid=" + syntheticUUID()
	}
	return strings.TrimPrefix(cookie, "; ")
}

// syntheticUUID mimics the platform's _uuid format: hex groups with a
// zero-padded millisecond tail and a fixed "infoc" suffix.
func syntheticUUID() string {
	group := func(n int) string {
		const hexDigits = "0123456789ABCDEF"
		b := make([]byte, n)
		for i := range b {
			b[i] = hexDigits[rand.Intn(16)]
		}
		return string(b)
	}
	ms := time.Now().UnixMilli() % 100000
	return fmt.Sprintf("%s-%s-%s-%s-%s%05dinfoc",
		group(8), group(4), group(4), group(4), group(12), ms)
}
