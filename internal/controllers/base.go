// Package controllers is the REST boundary: request DTO validation, error
// mapping and response shaping. All heavy lifting lives in the services.
package controllers

import (
	"net/http"
	"strconv"
	"vidops/internal/errs"
	"vidops/internal/providers"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	gson, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(raw) == 0 {
		_, _ = w.Write([]byte("[]"))
		return
	}
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, logger providers.Logger, err error) {
	status := errs.HTTPStatus(err)
	if status >= 500 {
		logger.Errorf(providers.TypeHttp, "request failed: %s", err)
	} else {
		logger.Debugf(providers.TypeHttp, "request rejected: %s", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body: " + err.Error()})
		return false
	}
	return true
}

// serveFromCacheOrCompute renders from the response cache when the key is
// warm, otherwise computes, stores and serves the fresh bytes.
func serveFromCacheOrCompute(w http.ResponseWriter, respCache providers.ResponseCacheInterface, cacheKey string, compute func() (interface{}, error)) error {
	if data, ok := respCache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return nil
	}

	result, err := compute()
	if err != nil {
		return err
	}
	gson, err := json.Marshal(result)
	if err != nil {
		return err
	}
	respCache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
	return nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, errs.NewUserError("missing %s parameter", key)
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.NewUserError("%s is not numeric: %s", key, raw)
	}
	return val, nil
}
