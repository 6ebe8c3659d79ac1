package controllers

import (
	"net/http"
	"net/url"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/services"

	json "github.com/goccy/go-json"
)

// CatalogController serves the four thin-CRUD tables with one handler set
// per verb; the table comes from the route binding.
type CatalogController struct {
	logger  providers.Logger
	catalog services.CatalogServiceInterface
}

func NewCatalogController(logger providers.Logger, catalog services.CatalogServiceInterface) *CatalogController {
	return &CatalogController{logger: logger, catalog: catalog}
}

var catalogFilterKeys = []string{"id", "category_id", "platform", "order", "limit", "select"}

func catalogFilters(r *http.Request) url.Values {
	filters := url.Values{}
	for _, key := range catalogFilterKeys {
		if v := r.URL.Query().Get(key); v != "" {
			if key == "id" || key == "category_id" {
				filters.Set(key, "eq."+v)
			} else if key == "platform" {
				filters.Set(key, "eq."+v)
			} else {
				filters.Set(key, v)
			}
		}
	}
	return filters
}

func (cc *CatalogController) List(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := cc.catalog.ListRows(r.Context(), table, catalogFilters(r))
		if err != nil {
			writeError(w, cc.logger, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (cc *CatalogController) Create(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if !decodeBody(w, r, &body) {
			return
		}
		raw, err := cc.catalog.CreateRow(r.Context(), table, body)
		if err != nil {
			writeError(w, cc.logger, err)
			return
		}
		writeRaw(w, http.StatusCreated, raw)
	}
}

func (cc *CatalogController) Patch(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if !decodeBody(w, r, &body) {
			return
		}
		raw, err := cc.catalog.PatchRow(r.Context(), table, r.URL.Query().Get("id"), body)
		if err != nil {
			writeError(w, cc.logger, err)
			return
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (cc *CatalogController) Delete(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cc.catalog.DeleteRow(r.Context(), table, r.URL.Query().Get("id")); err != nil {
			writeError(w, cc.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderSchemes applies the operator's drag order: the body's id sequence
// becomes sort_order 0..n-1.
func (cc *CatalogController) ReorderSchemes(w http.ResponseWriter, r *http.Request) {
	var payload reorderRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := cc.catalog.ReorderSchemes(r.Context(), payload.IDs); err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reordered": len(payload.IDs)})
}

// Tables the controller binds routes for.
var CatalogTables = map[string]string{
	"categories":     models.TableCategories,
	"entries":        models.TableEntries,
	"sourcing-items": models.TableSourcingItems,
	"schemes":        models.TableSchemes,
}
