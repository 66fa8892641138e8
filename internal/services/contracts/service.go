// Package contracts is the filing workflow: merge the uploads, let the user
// review an AI-prefilled form against the merged PDF, then file the result
// into Drive and the database in one submit.
package contracts

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/sawtoothmedia/contractdesk/internal/ai"
	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/services/pdfmerge"
	"github.com/sawtoothmedia/contractdesk/internal/store"
	"github.com/sawtoothmedia/contractdesk/internal/utils"
)

// RecordStore is the store surface the workflow needs.
type RecordStore interface {
	CreateOrder(ctx context.Context, order *models.Order, col store.Collection) (string, error)
	GetOrderByID(ctx context.Context, id string, col store.Collection) (*models.Order, store.Collection, error)
	UpdateOrder(ctx context.Context, id string, col store.Collection, fields map[string]interface{}) error
	AppendOrderModification(ctx context.Context, id string, col store.Collection, description string) error
}

// Placer is the placement surface the workflow needs.
type Placer interface {
	UploadToPending(ctx context.Context, content []byte) (drive.File, error)
	FileContract(ctx context.Context, p drive.ContractPlacement) (drive.File, error)
}

// FileStore reads and rewrites filed PDFs.
type FileStore interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
	ReplaceContent(ctx context.Context, fileID string, content []byte) error
}

// Extractor prefills the review form from the merged PDF.
type Extractor interface {
	ExtractContractDetails(ctx context.Context, pdf []byte) (ai.ContractDetails, error)
}

// Service wires the filing workflow together.
type Service struct {
	store  RecordStore
	placer Placer
	files  FileStore
	ai     Extractor
}

func New(rs RecordStore, placer Placer, files FileStore, ex Extractor) *Service {
	return &Service{store: rs, placer: placer, files: files, ai: ex}
}

// Preview is what the UI shows between merge and submit.
type Preview struct {
	PendingFileID    string             `json:"pendingFileId"`
	WebViewLink      string             `json:"webViewLink"`
	MergedPDFDataURI string             `json:"mergedPdfDataUri"`
	Details          ai.ContractDetails `json:"details"`
}

// MergeAndPreview merges the uploads, parks the result in the pending folder
// and prefills the form via extraction. An extraction failure does not block
// the preview; the user just fills the form by hand.
func (s *Service) MergeAndPreview(ctx context.Context, uploads []pdfmerge.InputFile) (Preview, error) {
	merged, err := pdfmerge.Merge(uploads)
	if err != nil {
		return Preview{}, err
	}
	pending, err := s.placer.UploadToPending(ctx, merged)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to save file to Google Drive: %w", err)
	}

	preview := Preview{
		PendingFileID:    pending.ID,
		WebViewLink:      pending.WebViewLink,
		MergedPDFDataURI: utils.EncodeDataURI("application/pdf", merged),
	}
	details, err := s.ai.ExtractContractDetails(ctx, merged)
	if err == nil {
		preview.Details = details
	}
	return preview, nil
}

// ExtractFromDataURI re-runs field extraction on a PDF the UI already holds
// as a base64 data URI, for re-prefilling the form without a second merge.
func (s *Service) ExtractFromDataURI(ctx context.Context, uri string) (ai.ContractDetails, error) {
	mimeType, data, err := utils.DecodeDataURI(uri)
	if err != nil {
		return ai.ContractDetails{}, err
	}
	if mimeType != "application/pdf" {
		return ai.ContractDetails{}, fmt.Errorf("expected a PDF data URI, got %q", mimeType)
	}
	return s.ai.ExtractContractDetails(ctx, data)
}

// Submission carries the user-confirmed fields of a contract filing.
type Submission struct {
	PendingFileID  string                  `json:"pendingFileId"`
	FileName       string                  `json:"fileName"`
	Client         string                  `json:"client"`
	Agency         string                  `json:"agency"`
	ContractNumber string                  `json:"contractNumber"`
	EstimateNumber string                  `json:"estimateNumber"`
	Stations       []string                `json:"stations"`
	Market         models.Market           `json:"market"`
	ContractType   models.ContractType     `json:"contractType"`
	Salesperson    *models.SalespersonInfo `json:"salesperson,omitempty"`
	OrderEntryDate time.Time               `json:"orderEntryDate"`
}

func (sub Submission) validate() error {
	if sub.PendingFileID == "" || sub.FileName == "" || sub.Client == "" {
		return fmt.Errorf("pendingFileId, fileName and client are required")
	}
	if !sub.Market.Valid() {
		return fmt.Errorf("unknown market %q", sub.Market)
	}
	if !sub.ContractType.Valid() {
		return fmt.Errorf("unknown contract type %q", sub.ContractType)
	}
	if sub.OrderEntryDate.IsZero() {
		return fmt.Errorf("orderEntryDate is required")
	}
	return nil
}

// SubmitFinal moves the pending file into its market/year/client folder and
// creates the record. The two steps are not transactional: a database failure
// after a successful move leaves the file filed with no record, which the
// error message says out loud so someone can reconcile by hand.
func (s *Service) SubmitFinal(ctx context.Context, sub Submission) (*models.Order, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	placed, err := s.placer.FileContract(ctx,
		drive.PlacementForDate(sub.PendingFileID, sub.Client, sub.FileName, sub.Market, sub.OrderEntryDate))
	if err != nil {
		return nil, fmt.Errorf("failed to save file to Google Drive: %w", err)
	}

	order := &models.Order{
		Client:         sub.Client,
		Agency:         sub.Agency,
		ContractNumber: sub.ContractNumber,
		EstimateNumber: sub.EstimateNumber,
		Stations:       datatypes.JSONSlice[string](sub.Stations),
		Market:         sub.Market,
		ContractType:   sub.ContractType,
		Salesperson:    sub.Salesperson,
		FinalFileName:  placed.Name,
		PDFURL:         placed.WebViewLink,
		PDFFileID:      placed.ID,
		OrderEntryDate: sub.OrderEntryDate,
	}
	if _, err := s.store.CreateOrder(ctx, order, store.CollectionForDate(sub.OrderEntryDate)); err != nil {
		return nil, fmt.Errorf("file saved to Google Drive, but failed to create the order record: %w", err)
	}
	return order, nil
}

// AppendFiles merges additional pages onto an already-filed contract, keeping
// the existing pages first, and flips the contract type (an appended page is
// usually a revision or cancellation notice).
func (s *Service) AppendFiles(ctx context.Context, orderID string, col store.Collection, uploads []pdfmerge.InputFile, newType models.ContractType) (*models.Order, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files to append")
	}
	if !newType.Valid() {
		return nil, fmt.Errorf("unknown contract type %q", newType)
	}

	order, foundCol, err := s.store.GetOrderByID(ctx, orderID, col)
	if err != nil {
		return nil, err
	}
	existing, err := s.files.Download(ctx, order.PDFFileID)
	if err != nil {
		return nil, err
	}

	parts := append([]pdfmerge.InputFile{{
		Name:     order.FinalFileName,
		MIMEType: "application/pdf",
		Data:     existing,
	}}, uploads...)
	merged, err := pdfmerge.Merge(parts)
	if err != nil {
		return nil, err
	}
	if err := s.files.ReplaceContent(ctx, order.PDFFileID, merged); err != nil {
		return nil, fmt.Errorf("failed to save file to Google Drive: %w", err)
	}

	if err := s.store.UpdateOrder(ctx, order.ID, foundCol, map[string]interface{}{
		"contract_type": newType,
	}); err != nil {
		return nil, err
	}
	if err := s.store.AppendOrderModification(ctx, order.ID, foundCol,
		fmt.Sprintf("Appended %d file(s) and set type to %s.", len(uploads), newType)); err != nil {
		return nil, err
	}
	order.ContractType = newType
	return order, nil
}
