package internal

import (
	"net/http"
	"vidops/internal/controllers"
	"vidops/internal/providers"
)

func InitRoutes(accountController *controllers.AccountController, catalogController *controllers.CatalogController, blueLinkController *controllers.BlueLinkController, questionController *controllers.QuestionController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/accounts", http.HandlerFunc(accountController.List))
	routers.Post("/accounts", http.HandlerFunc(accountController.Create))
	routers.Delete("/accounts", http.HandlerFunc(accountController.Delete))
	routers.Get("/accounts/videos", http.HandlerFunc(accountController.Videos))
	routers.Post("/accounts/sync", http.HandlerFunc(accountController.SyncOne))
	routers.Post("/accounts/sync-all", http.HandlerFunc(accountController.SyncAll))
	routers.Get("/jobs", http.HandlerFunc(accountController.JobStatus))

	for path, table := range controllers.CatalogTables {
		routers.Get("/"+path, catalogController.List(table))
		routers.Post("/"+path, catalogController.Create(table))
		routers.Patch("/"+path, catalogController.Patch(table))
		routers.Delete("/"+path, catalogController.Delete(table))
	}
	routers.Post("/schemes/reorder", http.HandlerFunc(catalogController.ReorderSchemes))

	routers.Get("/blue-links", http.HandlerFunc(blueLinkController.List))
	routers.Post("/blue-links", http.HandlerFunc(blueLinkController.Create))
	routers.Patch("/blue-links", http.HandlerFunc(blueLinkController.Patch))
	routers.Delete("/blue-links", http.HandlerFunc(blueLinkController.Delete))
	routers.Post("/blue-links/batch", http.HandlerFunc(blueLinkController.Batch))
	routers.Post("/blue-links/resolve", http.HandlerFunc(blueLinkController.Resolve))

	routers.Get("/keywords", http.HandlerFunc(questionController.ListKeywords))
	routers.Post("/keywords", http.HandlerFunc(questionController.CreateKeyword))
	routers.Delete("/keywords", http.HandlerFunc(questionController.DeleteKeyword))
	routers.Post("/questions/track", http.HandlerFunc(questionController.Track))
	routers.Post("/questions/sweep", http.HandlerFunc(questionController.Sweep))
	routers.Get("/questions", http.HandlerFunc(questionController.ListQuestions))
	routers.Get("/questions/stats", http.HandlerFunc(questionController.ListSnapshots))

	return routers
}
