package di

import (
	"vidops/internal/cache"
	"vidops/internal/providers"
)

func newMemo(metrics providers.MetricsProviderInterface) *cache.Memo {
	return cache.NewInstrumentedMemo(metrics)
}
