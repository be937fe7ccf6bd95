package main

import (
	"context"
	"net/http"
	"time"
)

type healthStatus struct {
	Status  string `json:"status"`
	Env     string `json:"env"`
	Version string `json:"version"`
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.store.Ping(ctx); err != nil {
		app.logger.Errorw("health check failed", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, healthStatus{
		Status:  "ok",
		Env:     app.config.Env,
		Version: version,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
