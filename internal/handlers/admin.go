package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

func (r *Router) scanNextImport(w http.ResponseWriter, req *http.Request) {
	if r.importSourceID == "" {
		respondBadRequest(w, "DRIVE_IMPORT_SOURCE_FOLDER_ID is not configured in the .env file")
		return
	}
	year := req.URL.Query().Get("year")
	if _, err := strconv.Atoi(year); err != nil {
		respondBadRequest(w, "year is required, e.g. 2021")
		return
	}
	next, err := r.importer.ScanNext(req.Context(), r.importSourceID, year)
	if err != nil {
		respondError(w, err, "scanning for importable files")
		return
	}
	respondData(w, next)
}

func (r *Router) runImport(w http.ResponseWriter, req *http.Request) {
	if r.importSourceID == "" {
		respondBadRequest(w, "DRIVE_IMPORT_SOURCE_FOLDER_ID is not configured in the .env file")
		return
	}
	var body struct {
		Year string `json:"year"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if _, err := strconv.Atoi(body.Year); err != nil {
		respondBadRequest(w, "year is required, e.g. 2021")
		return
	}

	// The loop runs on the request context: stopping is the client closing
	// the request, checked between files.
	result, err := r.importer.Run(req.Context(), r.importSourceID, body.Year, func(event string, payload interface{}) {
		if r.hub != nil {
			r.hub.Broadcast(event, payload)
		}
	})
	if err != nil {
		respondError(w, err, "running the import")
		return
	}
	respondData(w, result)
}

func (r *Router) loadDashboard(w http.ResponseWriter, req *http.Request) {
	data, err := r.dashboard.Load(req.Context())
	if err != nil {
		respondError(w, err, "loading the dashboard")
		return
	}
	respondData(w, data)
}

func (r *Router) dashboardInsights(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 30*time.Second)
	defer cancel()

	data, err := r.dashboard.Load(ctx)
	if err != nil {
		respondError(w, err, "loading the dashboard")
		return
	}
	insights, err := r.dashboard.Insights(ctx, data)
	if err != nil {
		respondError(w, err, "generating insights")
		return
	}
	respondData(w, map[string]string{"insights": insights})
}

func (r *Router) searchSalespeople(w http.ResponseWriter, req *http.Request) {
	if r.directory == nil {
		respondJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Error:   "The Workspace directory integration is not configured.",
		})
		return
	}
	people, err := r.directory.SearchSalespeople(req.Context(), req.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err, "searching salespeople")
		return
	}
	respondData(w, people)
}
