package upstream

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vidops/internal/testutil"
)

const (
	testImgKey = "7cd084941338484aae1ad9425b84077c"
	testSubKey = "4932caff0ff746eab6f01bf08b70ac45"
)

func newTestClient() *Client {
	return NewClient(2*time.Second, &testutil.MockLogger{}, testutil.NewMockMetrics())
}

func TestMixinKey_Is32Chars(t *testing.T) {
	key := mixinKey(testImgKey, testSubKey)
	assert.Len(t, key, 32)

	// Spot-check the permutation start: position 46 of img+sub.
	joined := testImgKey + testSubKey
	assert.Equal(t, joined[46], key[0])
	assert.Equal(t, joined[47], key[1])
}

func TestSignParams_WRidMatchesDigest(t *testing.T) {
	params := url.Values{}
	params.Set("mid", "1472906636")
	params.Set("pn", "1")
	params.Set("ps", "30")
	params.Set("keyword", "hello world")

	signed := SignParams(params, testImgKey, testSubKey)

	require.NotEmpty(t, signed.Get("wts"))
	wRid := signed.Get("w_rid")
	require.Len(t, wRid, 32)

	// Recompute the digest from the emitted parameter set.
	keys := make([]string, 0, len(signed))
	for k := range signed {
		if k == "w_rid" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var query strings.Builder
	for i, k := range keys {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(escapeWbi(k))
		query.WriteByte('=')
		query.WriteString(escapeWbi(signed.Get(k)))
	}
	digest := md5.Sum([]byte(query.String() + mixinKey(testImgKey, testSubKey)))
	assert.Equal(t, hex.EncodeToString(digest[:]), wRid)
}

func TestSignParams_StripsForbiddenChars(t *testing.T) {
	params := url.Values{}
	params.Set("keyword", "a!b'c(d)e*f")

	signed := SignParams(params, testImgKey, testSubKey)
	assert.Equal(t, "abcdef", signed.Get("keyword"))
}

func TestSignParams_DoesNotMutateInput(t *testing.T) {
	params := url.Values{}
	params.Set("mid", "42")

	SignParams(params, testImgKey, testSubKey)
	assert.Empty(t, params.Get("wts"))
	assert.Empty(t, params.Get("w_rid"))
}

func TestEscapeWbi_SpacesArePercent20(t *testing.T) {
	assert.Equal(t, "a%20b", escapeWbi("a b"))
	assert.Equal(t, "%E4%B8%AD", escapeWbi("中"))
}

func TestSigner_KeysFetchAndCache(t *testing.T) {
	var navCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		navCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"data":{"wbi_img":{
			"img_url":"https://i0.hdslb.com/bfs/wbi/` + testImgKey + `.png",
			"sub_url":"https://i0.hdslb.com/bfs/wbi/` + testSubKey + `.png"}}}`))
	}))
	defer srv.Close()

	signer := NewSigner(newTestClient())
	signer.NavURL = srv.URL

	keys, err := signer.Keys(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, testImgKey, keys.Img)
	assert.Equal(t, testSubKey, keys.Sub)
	assert.Equal(t, 1, navCalls)

	_, err = signer.Keys(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, navCalls, "cached pair must not refetch")

	_, err = signer.Keys(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, navCalls, "force must refetch")
}

func TestSigner_KeysMissingFromMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"data":{"wbi_img":{"img_url":"","sub_url":""}}}`))
	}))
	defer srv.Close()

	signer := NewSigner(newTestClient())
	signer.NavURL = srv.URL

	_, err := signer.Keys(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wbi keys")
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "abc123", keyFromURL("https://i0.hdslb.com/bfs/wbi/abc123.png"))
	assert.Equal(t, "", keyFromURL(""))
}
