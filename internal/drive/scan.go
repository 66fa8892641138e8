package drive

import (
	"context"
	"fmt"
)

// ImportableFile is one PDF found under the import source tree, together with
// the folder context the importer derives record fields from.
type ImportableFile struct {
	FileID         string
	FileName       string
	ClientName     string
	Year           string
	SourceParentID string
}

// ClientFolderScan groups the importable PDFs of one client folder.
type ClientFolderScan struct {
	ClientName string
	Files      []ImportableFile
}

func (e *Engine) listChildFolders(ctx context.Context, parentID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		parentID, folderMIMEType)
	return e.api.ListAll(ctx, query)
}

func (e *Engine) listChildPDFs(ctx context.Context, parentID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		parentID, pdfMIMEType)
	return e.api.ListAll(ctx, query)
}

// ScanForImportableFiles walks the legacy import tree, which is laid out as
// client folder -> year folder -> contract PDFs. Only the year folder named by
// the caller is descended into; other years stay untouched. Child listings
// page transparently, so arbitrarily large client folders are fine.
func (e *Engine) ScanForImportableFiles(ctx context.Context, sourceFolderID, year string) ([]ClientFolderScan, error) {
	if sourceFolderID == "" {
		return nil, fmt.Errorf("import source folder is not configured")
	}

	clientFolders, err := e.listChildFolders(ctx, sourceFolderID)
	if err != nil {
		return nil, err
	}

	var scans []ClientFolderScan
	for _, clientFolder := range clientFolders {
		if err := ctx.Err(); err != nil {
			return scans, err
		}
		yearFolders, err := e.listChildFolders(ctx, clientFolder.ID)
		if err != nil {
			return scans, err
		}
		for _, yearFolder := range yearFolders {
			if yearFolder.Name != year {
				continue
			}
			pdfs, err := e.listChildPDFs(ctx, yearFolder.ID)
			if err != nil {
				return scans, err
			}
			scan := ClientFolderScan{ClientName: clientFolder.Name}
			for _, pdf := range pdfs {
				scan.Files = append(scan.Files, ImportableFile{
					FileID:         pdf.ID,
					FileName:       pdf.Name,
					ClientName:     clientFolder.Name,
					Year:           year,
					SourceParentID: yearFolder.ID,
				})
			}
			if len(scan.Files) > 0 {
				scans = append(scans, scan)
			}
		}
	}
	return scans, nil
}
