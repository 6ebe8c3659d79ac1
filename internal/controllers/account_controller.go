package controllers

import (
	"net/http"
	"vidops/internal/errs"
	"vidops/internal/jobs"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/services"
)

type AccountController struct {
	logger   providers.Logger
	accounts services.AccountServiceInterface
	sync     services.AccountSyncServiceInterface
	registry *jobs.Registry
}

func NewAccountController(logger providers.Logger, accounts services.AccountServiceInterface, sync services.AccountSyncServiceInterface, registry *jobs.Registry) *AccountController {
	return &AccountController{
		logger:   logger,
		accounts: accounts,
		sync:     sync,
		registry: registry,
	}
}

func (ac *AccountController) List(w http.ResponseWriter, r *http.Request) {
	rows, err := ac.accounts.List(r.Context())
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (ac *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.Account
	if !decodeBody(w, r, &payload) {
		return
	}
	created, err := ac.accounts.Create(r.Context(), payload)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (ac *AccountController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt64(r, "id")
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	if err := ac.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, ac.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *AccountController) Videos(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryInt64(r, "account_id")
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	rows, err := ac.accounts.Videos(r.Context(), accountID)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// SyncOne runs a single-account sync inline; the caller waits for the
// counts. Long sweeps go through SyncAll instead.
func (ac *AccountController) SyncOne(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt64(r, "id")
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	account, err := ac.accounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	result, err := ac.sync.SyncAccount(r.Context(), *account)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncAll detaches a sweep over every account and immediately returns the
// job id to poll.
func (ac *AccountController) SyncAll(w http.ResponseWriter, r *http.Request) {
	job := ac.sync.StartSyncAll()
	ac.logger.Infof(providers.TypeJob, "account sync job %s started", job.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (ac *AccountController) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, ac.logger, errs.NewUserError("missing id parameter"))
		return
	}
	job, ok := ac.registry.Get(id)
	if !ok {
		writeError(w, ac.logger, &errs.NotFound{Resource: "job"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}
