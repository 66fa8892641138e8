package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/correction"
	"github.com/sawtoothmedia/contractdesk/internal/dashboard"
	"github.com/sawtoothmedia/contractdesk/internal/directory"
	"github.com/sawtoothmedia/contractdesk/internal/importer"
	"github.com/sawtoothmedia/contractdesk/internal/services/contracts"
	"github.com/sawtoothmedia/contractdesk/internal/store"
	"github.com/sawtoothmedia/contractdesk/internal/websocket"
)

// Router wraps the mux router and the services it dispatches to.
type Router struct {
	*mux.Router

	store     *store.Store
	contracts *contracts.Service
	clientFix *correction.ClientNameEngine
	dateFix   *correction.DateEngine
	marketFix *correction.MarketEngine
	importer  *importer.Importer
	dashboard *dashboard.Service
	directory *directory.Client
	hub       *websocket.Hub

	importSourceID string
}

// Deps carries everything the router needs. Optional integrations may be nil;
// their endpoints answer 503 until configured.
type Deps struct {
	Store     *store.Store
	Contracts *contracts.Service
	ClientFix *correction.ClientNameEngine
	DateFix   *correction.DateEngine
	MarketFix *correction.MarketEngine
	Importer  *importer.Importer
	Dashboard *dashboard.Service
	Directory *directory.Client
	Hub       *websocket.Hub

	ImportSourceID string
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:         mux.NewRouter(),
		store:          d.Store,
		contracts:      d.Contracts,
		clientFix:      d.ClientFix,
		dateFix:        d.DateFix,
		marketFix:      d.MarketFix,
		importer:       d.Importer,
		dashboard:      d.Dashboard,
		directory:      d.Directory,
		hub:            d.Hub,
		importSourceID: d.ImportSourceID,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Filing workflow
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/contracts/merge", r.mergeAndPreview).Methods("POST")
	api.HandleFunc("/contracts/extract", r.extractDetails).Methods("POST")
	api.HandleFunc("/contracts/submit", r.submitFinal).Methods("POST")

	// Order records
	api.HandleFunc("/orders", r.listOrders).Methods("GET")
	api.HandleFunc("/orders/by-client", r.ordersByClient).Methods("GET")
	api.HandleFunc("/orders/bulk", r.bulkUpdateOrders).Methods("PUT")
	api.HandleFunc("/orders/bulk", r.deleteOrders).Methods("DELETE")
	api.HandleFunc("/orders/{id}", r.getOrder).Methods("GET")
	api.HandleFunc("/orders/{id}", r.updateOrder).Methods("PUT")
	api.HandleFunc("/orders/{id}", r.deleteOrder).Methods("DELETE")
	api.HandleFunc("/orders/{id}/append", r.appendFiles).Methods("POST")

	// Batch correction tools
	api.HandleFunc("/corrections/client/count", r.countClientFixes).Methods("POST")
	api.HandleFunc("/corrections/client/batch", r.fetchClientBatch).Methods("POST")
	api.HandleFunc("/corrections/client/apply", r.applyClientBatch).Methods("POST")
	api.HandleFunc("/corrections/date/count", r.countDateFixes).Methods("POST")
	api.HandleFunc("/corrections/date/batch", r.fetchDateBatch).Methods("POST")
	api.HandleFunc("/corrections/date/apply", r.applyDateBatch).Methods("POST")
	api.HandleFunc("/corrections/date/archive", r.archiveDateRecord).Methods("POST")
	api.HandleFunc("/corrections/market/scan", r.scanMarketMismatches).Methods("GET")
	api.HandleFunc("/corrections/market/apply", r.applyMarketBatch).Methods("POST")

	// Importer, dashboard, directory
	api.HandleFunc("/import/next", r.scanNextImport).Methods("GET")
	api.HandleFunc("/import/run", r.runImport).Methods("POST")
	api.HandleFunc("/dashboard", r.loadDashboard).Methods("GET")
	api.HandleFunc("/dashboard/insights", r.dashboardInsights).Methods("GET")
	api.HandleFunc("/salespeople", r.searchSalespeople).Methods("GET")

	// Progress stream
	r.HandleFunc("/ws/progress", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(r.hub, w, req)
	})

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// envelope is the uniform response shape: {success, data?, error?}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondData wraps a payload in the success envelope.
func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// respondError maps an error's kind to an HTTP status and renders the
// friendly message for it.
func respondError(w http.ResponseWriter, err error, context string) {
	respondJSON(w, statusFor(err), envelope{Success: false, Error: apperrors.Friendly(err, context)})
}

// respondBadRequest reports a malformed request with its literal message.
func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, envelope{Success: false, Error: message})
}

func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindParse:
		return http.StatusBadRequest
	case apperrors.KindCredential:
		return http.StatusUnauthorized
	case apperrors.KindPermission:
		return http.StatusForbidden
	case apperrors.KindQuota:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(req *http.Request, dst interface{}) error {
	defer req.Body.Close()
	return json.NewDecoder(req.Body).Decode(dst)
}
