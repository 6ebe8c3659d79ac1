package controllers

import (
	"net/http"
	"vidops/internal/models"
	"vidops/internal/providers"
	"vidops/internal/services"
)

type QuestionController struct {
	logger    providers.Logger
	keywords  services.KeywordServiceInterface
	tracker   services.QuestionTrackerServiceInterface
	respCache providers.ResponseCacheInterface
}

func NewQuestionController(logger providers.Logger, keywords services.KeywordServiceInterface, tracker services.QuestionTrackerServiceInterface, respCache providers.ResponseCacheInterface) *QuestionController {
	return &QuestionController{logger: logger, keywords: keywords, tracker: tracker, respCache: respCache}
}

func (qc *QuestionController) ListKeywords(w http.ResponseWriter, r *http.Request) {
	rows, err := qc.keywords.List(r.Context())
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (qc *QuestionController) CreateKeyword(w http.ResponseWriter, r *http.Request) {
	var payload models.Keyword
	if !decodeBody(w, r, &payload) {
		return
	}
	created, err := qc.keywords.Create(r.Context(), payload)
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (qc *QuestionController) DeleteKeyword(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt64(r, "id")
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	if err := qc.keywords.Delete(r.Context(), id); err != nil {
		writeError(w, qc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type trackRequest struct {
	KeywordID   int64  `json:"keyword_id"`
	QuestionURL string `json:"question_url"`
}

func (qc *QuestionController) Track(w http.ResponseWriter, r *http.Request) {
	var payload trackRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	result, err := qc.tracker.TrackSingle(r.Context(), payload.KeywordID, payload.QuestionURL)
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type sweepRequest struct {
	KeywordIDs      []int64 `json:"keyword_ids,omitempty"`
	IncludeExisting bool    `json:"include_existing,omitempty"`
}

func (qc *QuestionController) Sweep(w http.ResponseWriter, r *http.Request) {
	var payload sweepRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &payload) {
		return
	}
	job := qc.tracker.StartSweep(payload.KeywordIDs, payload.IncludeExisting)
	qc.logger.Infof(providers.TypeJob, "question sweep job %s started", job.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (qc *QuestionController) ListQuestions(w http.ResponseWriter, r *http.Request) {
	keywordID, err := queryInt64(r, "keyword_id")
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	err = serveFromCacheOrCompute(w, qc.respCache, "questions:"+r.URL.Query().Get("keyword_id"), func() (interface{}, error) {
		return qc.keywords.Questions(r.Context(), keywordID)
	})
	if err != nil {
		writeError(w, qc.logger, err)
	}
}

func (qc *QuestionController) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	questionID, err := queryInt64(r, "question_id")
	if err != nil {
		writeError(w, qc.logger, err)
		return
	}
	err = serveFromCacheOrCompute(w, qc.respCache, "qstats:"+r.URL.Query().Get("question_id"), func() (interface{}, error) {
		return qc.keywords.Snapshots(r.Context(), questionID)
	})
	if err != nil {
		writeError(w, qc.logger, err)
	}
}
