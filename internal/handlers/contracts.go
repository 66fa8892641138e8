package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/services/contracts"
	"github.com/sawtoothmedia/contractdesk/internal/services/pdfmerge"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// maxUploadBytes bounds one merge request. Scanned contracts run a few MB
// per file.
const maxUploadBytes = 64 << 20

// uploadsFromRequest reads the multipart "files" field in upload order.
func uploadsFromRequest(req *http.Request) ([]pdfmerge.InputFile, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}
	var uploads []pdfmerge.InputFile
	for _, header := range req.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, pdfmerge.InputFile{
			Name:     header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return uploads, nil
}

func (r *Router) mergeAndPreview(w http.ResponseWriter, req *http.Request) {
	uploads, err := uploadsFromRequest(req)
	if err != nil {
		respondBadRequest(w, "could not read the uploaded files")
		return
	}
	if len(uploads) == 0 {
		respondBadRequest(w, "no files were uploaded")
		return
	}

	preview, err := r.contracts.MergeAndPreview(req.Context(), uploads)
	if err != nil {
		respondError(w, err, "merging the files")
		return
	}
	respondData(w, preview)
}

func (r *Router) extractDetails(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PDFDataURI string `json:"pdfDataUri"`
	}
	if err := decodeBody(req, &body); err != nil || body.PDFDataURI == "" {
		respondBadRequest(w, "pdfDataUri is required")
		return
	}
	details, err := r.contracts.ExtractFromDataURI(req.Context(), body.PDFDataURI)
	if err != nil {
		respondError(w, err, "reading the contract")
		return
	}
	respondData(w, details)
}

func (r *Router) submitFinal(w http.ResponseWriter, req *http.Request) {
	var sub contracts.Submission
	if err := decodeBody(req, &sub); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	order, err := r.contracts.SubmitFinal(req.Context(), sub)
	if err != nil {
		respondError(w, err, "filing the contract")
		return
	}
	respondData(w, order)
}

func (r *Router) appendFiles(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	uploads, err := uploadsFromRequest(req)
	if err != nil {
		respondBadRequest(w, "could not read the uploaded files")
		return
	}

	col := store.CollectionCurrent
	if req.FormValue("collection") == string(store.CollectionArchived) {
		col = store.CollectionArchived
	}
	newType := models.ContractType(req.FormValue("contractType"))

	order, err := r.contracts.AppendFiles(req.Context(), id, col, uploads, newType)
	if err != nil {
		respondError(w, err, "appending to the contract")
		return
	}
	respondData(w, order)
}
