package controllers

import (
	"net/http"
	"time"
	"vidops/internal/structures"
)

type HealthController struct {
	conf      *structures.Config
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	App           string  `json:"app"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		App:           hc.conf.AppName,
		UptimeSeconds: time.Since(hc.startTime).Seconds(),
	})
}

func NewHealthController(conf *structures.Config) *HealthController {
	return &HealthController{conf: conf, startTime: time.Now()}
}
