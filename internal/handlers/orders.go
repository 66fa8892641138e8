package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sawtoothmedia/contractdesk/internal/store"
)

const defaultPageSize = 20

// updatableColumns is the whitelist for ad-hoc record edits from the UI.
var updatableColumns = map[string]bool{
	"client":           true,
	"agency":           true,
	"contract_number":  true,
	"estimate_number":  true,
	"stations":         true,
	"market":           true,
	"contract_type":    true,
	"salesperson":      true,
	"order_entry_date": true,
}

func collectionParam(req *http.Request) store.Collection {
	if req.URL.Query().Get("collection") == string(store.CollectionArchived) {
		return store.CollectionArchived
	}
	return store.CollectionCurrent
}

func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	limit := defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondBadRequest(w, "limit must be an integer between 1 and 200")
			return
		}
		limit = n
	}

	orders, err := r.store.GetPagedOrders(req.Context(), limit,
		q.Get("cursor"),
		q.Get("includeArchived") == "true",
		q.Get("includeOlder") == "true")
	if err != nil {
		respondError(w, err, "loading orders")
		return
	}

	nextCursor := ""
	if len(orders) == limit {
		nextCursor = orders[len(orders)-1].ID
	}
	respondData(w, map[string]interface{}{
		"orders":     orders,
		"nextCursor": nextCursor,
	})
}

func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	order, col, err := r.store.GetOrderByID(req.Context(), id, collectionParam(req))
	if err != nil {
		respondError(w, err, "loading the order")
		return
	}
	respondData(w, store.FixableOrder{Order: *order, Collection: col})
}

func (r *Router) ordersByClient(w http.ResponseWriter, req *http.Request) {
	client := req.URL.Query().Get("client")
	if client == "" {
		respondBadRequest(w, "client query parameter is required")
		return
	}
	orders, err := r.store.GetOrdersByClient(req.Context(), client)
	if err != nil {
		respondError(w, err, "loading orders for the client")
		return
	}
	respondData(w, orders)
}

func (r *Router) updateOrder(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	var body struct {
		Collection store.Collection       `json:"collection"`
		Fields     map[string]interface{} `json:"fields"`
		Note       string                 `json:"note"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if body.Collection == "" {
		body.Collection = store.CollectionCurrent
	}
	if len(body.Fields) == 0 {
		respondBadRequest(w, "no fields to update")
		return
	}
	for column := range body.Fields {
		if !updatableColumns[column] {
			respondBadRequest(w, "field "+column+" cannot be updated")
			return
		}
	}

	if err := r.store.UpdateOrder(req.Context(), id, body.Collection, body.Fields); err != nil {
		respondError(w, err, "updating the order")
		return
	}
	note := body.Note
	if note == "" {
		note = "Record updated."
	}
	if err := r.store.AppendOrderModification(req.Context(), id, body.Collection, note); err != nil {
		respondError(w, err, "updating the order")
		return
	}
	respondData(w, map[string]string{"id": id})
}

func (r *Router) bulkUpdateOrders(w http.ResponseWriter, req *http.Request) {
	var body struct {
		IDs        []string               `json:"ids"`
		Collection store.Collection       `json:"collection"`
		Fields     map[string]interface{} `json:"fields"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if len(body.IDs) == 0 || len(body.Fields) == 0 {
		respondBadRequest(w, "ids and fields are required")
		return
	}
	if body.Collection == "" {
		body.Collection = store.CollectionCurrent
	}
	for column := range body.Fields {
		if !updatableColumns[column] {
			respondBadRequest(w, "field "+column+" cannot be updated")
			return
		}
	}

	if err := r.store.BulkUpdateOrders(req.Context(), body.IDs, body.Collection, body.Fields); err != nil {
		respondError(w, err, "updating the orders")
		return
	}
	respondData(w, map[string]int{"updated": len(body.IDs)})
}

func (r *Router) deleteOrder(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.store.DeleteOrder(req.Context(), id, collectionParam(req)); err != nil {
		respondError(w, err, "deleting the order")
		return
	}
	respondData(w, map[string]string{"id": id})
}

func (r *Router) deleteOrders(w http.ResponseWriter, req *http.Request) {
	var body struct {
		IDs        []string         `json:"ids"`
		Collection store.Collection `json:"collection"`
	}
	if err := decodeBody(req, &body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if len(body.IDs) == 0 {
		respondBadRequest(w, "ids are required")
		return
	}
	if body.Collection == "" {
		body.Collection = store.CollectionCurrent
	}
	if err := r.store.DeleteOrders(req.Context(), body.IDs, body.Collection); err != nil {
		respondError(w, err, "deleting the orders")
		return
	}
	respondData(w, map[string]int{"deleted": len(body.IDs)})
}
