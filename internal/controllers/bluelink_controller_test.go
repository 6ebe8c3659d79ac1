package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vidops/internal/errs"
	"vidops/internal/services"
	"vidops/internal/testutil"
)

func TestBlueLinkBatch_ReturnsCount(t *testing.T) {
	bc := NewBlueLinkController(&testutil.MockLogger{}, &mockBlueLinkService{batchN: 2}, &mockResolver{})

	rr := httptest.NewRecorder()
	bc.Batch(rr, httptest.NewRequest(http.MethodPost, "/blue-links/batch", strings.NewReader(`{"links":[
		{"account_id":1,"product_id":"a","platform":"jd","source_link":"https://item.jd.com/1.html"},
		{"account_id":1,"product_id":"b","platform":"jd","source_link":"https://item.jd.com/2.html"}
	]}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"upserted":2}`, rr.Body.String())
}

func TestBlueLinkBatch_ValidationErrorIs400(t *testing.T) {
	bc := NewBlueLinkController(&testutil.MockLogger{}, &mockBlueLinkService{
		batchErr: errs.NewUserError("source link is not a url: broken"),
	}, &mockResolver{})

	rr := httptest.NewRecorder()
	bc.Batch(rr, httptest.NewRequest(http.MethodPost, "/blue-links/batch", strings.NewReader(`{"links":[{"source_link":"broken"}]}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "not a url")
}

func TestBlueLinkResolve(t *testing.T) {
	bc := NewBlueLinkController(&testutil.MockLogger{}, &mockBlueLinkService{}, &mockResolver{
		result: &services.LinkResult{Platform: "jd", ProductID: "555", CanonicalURL: "https://item.jd.com/555.html"},
	})

	rr := httptest.NewRecorder()
	bc.Resolve(rr, httptest.NewRequest(http.MethodPost, "/blue-links/resolve",
		strings.NewReader(`{"url":"https://u.jd.com/abc"}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"product_id":"555"`)
}

func TestBlueLinkResolve_UpstreamFailureIs502(t *testing.T) {
	bc := NewBlueLinkController(&testutil.MockLogger{}, &mockBlueLinkService{}, &mockResolver{
		err: &errs.UpstreamError{Message: "short link chain ended"},
	})

	rr := httptest.NewRecorder()
	bc.Resolve(rr, httptest.NewRequest(http.MethodPost, "/blue-links/resolve",
		strings.NewReader(`{"url":"https://u.jd.com/abc"}`)))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestBlueLinkList_FilterTranslation(t *testing.T) {
	bc := NewBlueLinkController(&testutil.MockLogger{}, &mockBlueLinkService{rows: []byte(`[{"id":1}]`)}, &mockResolver{})

	rr := httptest.NewRecorder()
	bc.List(rr, httptest.NewRequest(http.MethodGet, "/blue-links?account_id=1&platform=jd", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `[{"id":1}]`, rr.Body.String())
}
