// Package importer walks a legacy Drive tree of already-filed contracts and
// backfills database records for them, one file at a time. Everything it
// learns comes from the filename, the folder it sits in, and as a last resort
// the PDF itself.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"

	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/fileparse"
	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// importedAgency marks records created by the importer rather than a human.
const importedAgency = "N/A - Imported"

// RecordStore is the store surface the importer needs.
type RecordStore interface {
	GetOrderByPDFFileID(ctx context.Context, fileID string) (*store.FixableOrder, error)
	CreateOrder(ctx context.Context, order *models.Order, col store.Collection) (string, error)
}

// Placer is the placement surface the importer needs.
type Placer interface {
	ScanForImportableFiles(ctx context.Context, sourceFolderID, year string) ([]drive.ClientFolderScan, error)
	FileContract(ctx context.Context, p drive.ContractPlacement) (drive.File, error)
	ArchiveFile(ctx context.Context, fileID, fileName string) (string, error)
}

// FileStore downloads contract bytes for the AI date fallback.
type FileStore interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// DateExtractor is the AI fallback when the filename has no parseable date.
type DateExtractor interface {
	ExtractContractDate(ctx context.Context, pdf []byte) (time.Time, error)
}

// Progress receives one event per processed file. A nil Progress is fine.
type Progress func(event string, payload interface{})

// Result summarizes one import run.
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Archived int      `json:"archived"`
	Errors   []string `json:"errors"`
}

// Importer drives the import loop.
type Importer struct {
	store  RecordStore
	placer Placer
	files  FileStore
	ai     DateExtractor
	market models.Market
}

// New builds an importer. Imported records are flagged with the given market,
// since the legacy source tree belongs to one market only.
func New(rs RecordStore, placer Placer, files FileStore, ex DateExtractor, market models.Market) *Importer {
	return &Importer{store: rs, placer: placer, files: files, ai: ex, market: market}
}

// ScanNext finds the first PDF under the source tree that has no database
// record yet. Returns nil when the year's backlog is fully imported.
func (im *Importer) ScanNext(ctx context.Context, sourceFolderID, year string) (*drive.ImportableFile, error) {
	scans, err := im.placer.ScanForImportableFiles(ctx, sourceFolderID, year)
	if err != nil {
		return nil, err
	}
	for _, scan := range scans {
		for _, f := range scan.Files {
			existing, err := im.store.GetOrderByPDFFileID(ctx, f.FileID)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				found := f
				return &found, nil
			}
		}
	}
	return nil, nil
}

// ProcessFile imports one file: derive the entry date (filename heuristic,
// then AI, then give up and archive), re-file the PDF into the proper
// market/year/client folder, and create the record. The bool reports whether
// a record was created (false means the file was archived as unmatched).
func (im *Importer) ProcessFile(ctx context.Context, f drive.ImportableFile) (bool, error) {
	parsed, parseErr := fileparse.Parse(f.FileName)

	var entryDate time.Time
	var stations []string
	contractNumber := fileparse.DefaultContractNumber
	if parseErr == nil {
		entryDate = parsed.EntryDate
		stations = parsed.Stations
		contractNumber = parsed.ContractNumber
	} else {
		pdf, err := im.files.Download(ctx, f.FileID)
		if err != nil {
			return false, err
		}
		entryDate, err = im.ai.ExtractContractDate(ctx, pdf)
		if err != nil {
			log.Printf("⚠️ No date for %q by any means, archiving as unmatched", f.FileName)
			if _, archiveErr := im.placer.ArchiveFile(ctx, f.FileID, f.FileName); archiveErr != nil {
				return false, archiveErr
			}
			return false, nil
		}
	}

	placed, err := im.placer.FileContract(ctx, drive.ContractPlacement{
		FileID:   f.FileID,
		Client:   f.ClientName,
		FileName: f.FileName,
		Market:   im.market,
		Year:     f.Year,
	})
	if err != nil {
		return false, err
	}

	order := &models.Order{
		Client:         f.ClientName,
		Agency:         importedAgency,
		ContractNumber: contractNumber,
		Stations:       datatypes.JSONSlice[string](stations),
		Market:         im.market,
		ContractType:   models.ContractOriginal,
		FinalFileName:  f.FileName,
		PDFURL:         placed.WebViewLink,
		PDFFileID:      placed.ID,
		OrderEntryDate: entryDate,
	}
	if _, err := im.store.CreateOrder(ctx, order, store.CollectionForDate(entryDate)); err != nil {
		return false, err
	}
	return true, nil
}

// Run imports every unrecorded file under the source tree for one year.
// Cancellation is cooperative and checked between whole files only; a file
// mid-import always finishes or fails on its own.
func (im *Importer) Run(ctx context.Context, sourceFolderID, year string, progress Progress) (Result, error) {
	notify := progress
	if notify == nil {
		notify = func(string, interface{}) {}
	}

	scans, err := im.placer.ScanForImportableFiles(ctx, sourceFolderID, year)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, scan := range scans {
		for _, f := range scan.Files {
			if err := ctx.Err(); err != nil {
				notify("import:stopped", result)
				return result, err
			}

			existing, err := im.store.GetOrderByPDFFileID(ctx, f.FileID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.FileName, err))
				continue
			}
			if existing != nil {
				result.Skipped++
				notify("import:skipped", f.FileName)
				continue
			}

			created, err := im.ProcessFile(ctx, f)
			switch {
			case err != nil:
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.FileName, err))
				notify("import:error", f.FileName)
			case created:
				result.Imported++
				notify("import:done", f.FileName)
			default:
				result.Archived++
				notify("import:archived", f.FileName)
			}
		}
	}
	notify("import:complete", result)
	return result, nil
}
