// Package errs defines the error kinds the workbench distinguishes, from
// narrowest to broadest: bad client input, missing rows, datastore refusals,
// upstream failures and their risk-classified subset.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// UserError marks client-supplied bad input. Surfaced as HTTP 400.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

func NewUserError(format string, args ...interface{}) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// NotFound marks a referenced row that does not exist. Surfaced as HTTP 404.
type NotFound struct {
	Resource string
}

func (e *NotFound) Error() string { return e.Resource + " not found" }

// StoreError carries a datastore refusal together with its status code.
type StoreError struct {
	StatusCode int
	Message    string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error %d: %s", e.StatusCode, e.Message)
}

// UpstreamError is any non-risk upstream failure: timeout, non-2xx,
// decode error. Batch pipelines capture it per item; single-shot handlers
// surface it as HTTP 502.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error %d: %s", e.Status, e.Message)
	}
	return "upstream error: " + e.Message
}

// UpstreamRiskError marks a risk/frequency rejection that survived the full
// escalation ladder. Handlers treat it like UpstreamError; the fetcher
// distinguishes it so alternative rungs can run.
type UpstreamRiskError struct {
	Message string
}

func (e *UpstreamRiskError) Error() string { return "upstream risk: " + e.Message }

// HTTPStatus maps an error to the status code the REST boundary returns.
func HTTPStatus(err error) int {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return http.StatusBadRequest
	}
	var notFound *NotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		if storeErr.StatusCode == http.StatusConflict {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	var upErr *UpstreamError
	var riskErr *UpstreamRiskError
	if errors.As(err, &upErr) || errors.As(err, &riskErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
