//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"vidops/internal"
	"vidops/internal/browser"
	"vidops/internal/controllers"
	"vidops/internal/jobs"
	"vidops/internal/providers"
	"vidops/internal/scheduler"
	"vidops/internal/services"
	"vidops/internal/store"
	"vidops/internal/structures"
	"vidops/internal/upstream"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewResponseCacheProvider,

		newMemo,
		jobs.NewRegistry,

		upstream.NewClientFromConfig,
		upstream.NewSigner,
		browser.NewBrowser,
		upstream.NewFetcher,
		upstream.NewQuestionClient,
		wire.Bind(new(services.VideoLister), new(*upstream.Fetcher)),
		wire.Bind(new(services.QuestionUpstream), new(*upstream.QuestionClient)),

		store.NewClient,

		services.NewAccountService,
		services.NewAccountSyncService,
		services.NewQuestionTrackerService,
		services.NewKeywordService,
		services.NewCatalogService,
		services.NewBlueLinkService,
		services.NewLinkResolverService,

		controllers.NewAccountController,
		controllers.NewCatalogController,
		controllers.NewBlueLinkController,
		controllers.NewQuestionController,
		controllers.NewHealthController,

		scheduler.NewScheduler,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
