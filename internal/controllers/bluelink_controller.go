package controllers

import (
	"net/http"
	"net/url"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/services"

	json "github.com/goccy/go-json"
)

type BlueLinkController struct {
	logger   providers.Logger
	links    services.BlueLinkServiceInterface
	resolver services.LinkResolverServiceInterface
}

func NewBlueLinkController(logger providers.Logger, links services.BlueLinkServiceInterface, resolver services.LinkResolverServiceInterface) *BlueLinkController {
	return &BlueLinkController{logger: logger, links: links, resolver: resolver}
}

func (bc *BlueLinkController) List(w http.ResponseWriter, r *http.Request) {
	filters := url.Values{}
	if v := r.URL.Query().Get("account_id"); v != "" {
		filters.Set("account_id", "eq."+v)
	}
	if v := r.URL.Query().Get("platform"); v != "" {
		filters.Set("platform", "eq."+v)
	}
	raw, err := bc.links.List(r.Context(), filters)
	if err != nil {
		writeError(w, bc.logger, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (bc *BlueLinkController) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.BlueLink
	if !decodeBody(w, r, &payload) {
		return
	}
	raw, err := bc.links.Create(r.Context(), payload)
	if err != nil {
		writeError(w, bc.logger, err)
		return
	}
	writeRaw(w, http.StatusCreated, raw)
}

func (bc *BlueLinkController) Patch(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if !decodeBody(w, r, &body) {
		return
	}
	raw, err := bc.links.Patch(r.Context(), r.URL.Query().Get("id"), body)
	if err != nil {
		writeError(w, bc.logger, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (bc *BlueLinkController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := bc.links.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeError(w, bc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchRequest struct {
	Links []models.BlueLink `json:"links"`
}

func (bc *BlueLinkController) Batch(w http.ResponseWriter, r *http.Request) {
	var payload batchRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	count, err := bc.links.BatchUpsert(r.Context(), payload.Links)
	if err != nil {
		writeError(w, bc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserted": count})
}

type resolveRequest struct {
	URL string `json:"url"`
}

func (bc *BlueLinkController) Resolve(w http.ResponseWriter, r *http.Request) {
	var payload resolveRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	result, err := bc.resolver.Resolve(r.Context(), payload.URL)
	if err != nil {
		writeError(w, bc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
