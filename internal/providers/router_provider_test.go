package providers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRouterProvider_GetAddsMethodPattern(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/accounts", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "GET /accounts", routes[0].Url)
}

func TestRouterProvider_PostAddsMethodPattern(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/accounts", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "POST /accounts", routes[0].Url)
}

func TestRouterProvider_PatchAndDelete(t *testing.T) {
	rp := NewRouterProvider()
	rp.Patch("/bluelinks", dummyHandler())
	rp.Delete("/bluelinks", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, "PATCH /bluelinks", routes[0].Url)
	assert.Equal(t, "DELETE /bluelinks", routes[1].Url)
}

func TestRouterProvider_PreservesOrder(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/a", dummyHandler())
	rp.Post("/b", dummyHandler())
	rp.Get("/c", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 3)
	assert.Equal(t, "GET /a", routes[0].Url)
	assert.Equal(t, "POST /b", routes[1].Url)
	assert.Equal(t, "GET /c", routes[2].Url)
}

func TestRouterProvider_PatternsRegisterOnServeMux(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/accounts", dummyHandler())
	rp.Delete("/accounts", dummyHandler())

	mux := http.NewServeMux()
	assert.NotPanics(t, func() {
		for _, route := range rp.GetRoutes() {
			mux.Handle(route.Url, route.Handler)
		}
	})
}
