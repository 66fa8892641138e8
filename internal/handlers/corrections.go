package handlers

import (
	"net/http"

	"github.com/sawtoothmedia/contractdesk/internal/correction"
)

// The correction endpoints are thin: the UI drives the session state machine
// by calling count, batch and apply in order; the engines track the state and
// the hub mirrors it to any open progress stream.

func (r *Router) broadcastState(tool string, state correction.State) {
	if r.hub != nil {
		r.hub.Broadcast("correction:"+tool, string(state))
	}
}

func (r *Router) countClientFixes(w http.ResponseWriter, req *http.Request) {
	var body struct {
		BadClient string `json:"badClient"`
	}
	if err := decodeBody(req, &body); err != nil || body.BadClient == "" {
		respondBadRequest(w, "badClient is required")
		return
	}
	n, err := r.clientFix.Count(req.Context(), body.BadClient)
	r.broadcastState("client", r.clientFix.State())
	if err != nil {
		respondError(w, err, "counting fixable orders")
		return
	}
	respondData(w, map[string]int64{"total": n})
}

func (r *Router) fetchClientBatch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		BadClient string `json:"badClient"`
		Cursor    string `json:"cursor"`
	}
	if err := decodeBody(req, &body); err != nil || body.BadClient == "" {
		respondBadRequest(w, "badClient is required")
		return
	}
	batch, next, err := r.clientFix.FetchBatch(req.Context(), body.BadClient, body.Cursor)
	r.broadcastState("client", r.clientFix.State())
	if err != nil {
		respondError(w, err, "building the correction batch")
		return
	}
	respondData(w, map[string]interface{}{
		"corrections": batch,
		"nextCursor":  next,
	})
}

func (r *Router) applyClientBatch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Corrections []correction.ClientCorrection `json:"corrections"`
		HasMore     bool                          `json:"hasMore"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	result := r.clientFix.Apply(req.Context(), body.Corrections, body.HasMore)
	r.broadcastState("client", r.clientFix.State())
	respondData(w, result)
}

func (r *Router) countDateFixes(w http.ResponseWriter, req *http.Request) {
	var body struct {
		BadDate string `json:"badDate"`
	}
	if err := decodeBody(req, &body); err != nil || body.BadDate == "" {
		respondBadRequest(w, "badDate is required (YYYY-MM-DD)")
		return
	}
	n, err := r.dateFix.Count(req.Context(), body.BadDate)
	r.broadcastState("date", r.dateFix.State())
	if err != nil {
		respondError(w, err, "counting orders on that date")
		return
	}
	respondData(w, map[string]int64{"total": n})
}

func (r *Router) fetchDateBatch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		BadDate string `json:"badDate"`
		Cursor  string `json:"cursor"`
	}
	if err := decodeBody(req, &body); err != nil || body.BadDate == "" {
		respondBadRequest(w, "badDate is required (YYYY-MM-DD)")
		return
	}
	batch, next, err := r.dateFix.FetchBatch(req.Context(), body.BadDate, body.Cursor)
	r.broadcastState("date", r.dateFix.State())
	if err != nil {
		respondError(w, err, "building the correction batch")
		return
	}
	respondData(w, map[string]interface{}{
		"corrections": batch,
		"nextCursor":  next,
	})
}

func (r *Router) applyDateBatch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Corrections []correction.DateCorrection `json:"corrections"`
		HasMore     bool                        `json:"hasMore"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	result := r.dateFix.Apply(req.Context(), body.Corrections, body.HasMore)
	r.broadcastState("date", r.dateFix.State())
	respondData(w, result)
}

func (r *Router) archiveDateRecord(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Correction correction.DateCorrection `json:"correction"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if err := r.dateFix.ArchiveAndRemove(req.Context(), body.Correction); err != nil {
		respondError(w, err, "archiving the record")
		return
	}
	respondData(w, map[string]string{"archived": body.Correction.Order.ID})
}

func (r *Router) scanMarketMismatches(w http.ResponseWriter, req *http.Request) {
	mismatches, err := r.marketFix.Scan(req.Context())
	r.broadcastState("market", r.marketFix.State())
	if err != nil {
		respondError(w, err, "scanning for market mismatches")
		return
	}
	respondData(w, mismatches)
}

func (r *Router) applyMarketBatch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Corrections []correction.MarketCorrection `json:"corrections"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	result := r.marketFix.Apply(req.Context(), body.Corrections)
	r.broadcastState("market", r.marketFix.State())
	respondData(w, result)
}
