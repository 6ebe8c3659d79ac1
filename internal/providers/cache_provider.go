package providers

import (
	"unsafe"
	"vidops/internal/structures"

	"github.com/coocood/freecache"
)

// ResponseCacheInterface memoizes rendered JSON responses in the
// controllers. It is distinct from the namespaced TTL cache the pipelines
// use; entries here are plain bytes with one process-wide TTL.
type ResponseCacheInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type ResponseCache struct {
	cache *freecache.Cache
	ttl   int
}

const responseTTLSeconds = 60

func NewResponseCacheProvider(conf *structures.Config, logger Logger) ResponseCacheInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Response cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	logger.Infof(TypeApp, "Response cache initialized: %dMB, TTL=%ds", conf.Cache.Size, responseTTLSeconds)

	return &ResponseCache{
		cache: freecache.NewCache(sizeBytes),
		ttl:   responseTTLSeconds,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// Safe when the result is only read (not modified), which is the case
// for freecache — it copies keys internally.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *ResponseCache) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
