package drive

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/config"
	"github.com/sawtoothmedia/contractdesk/internal/models"
)

// unmatchedFolderName is where files land when no date could be determined
// for them by any means.
const unmatchedFolderName = "unmatched"

var unsafeNameChars = regexp.MustCompile(`[/\\?%*:|"<>]`)

// Engine resolves and maintains the market/year/client folder hierarchy and
// moves contract files into it. It owns the storage-side path of a record but
// none of its metadata.
type Engine struct {
	api     API
	boiseID string
	twinID  string
	pending string
}

// NewEngine validates the folder configuration the engine cannot run without.
// The Twin Falls root is optional at construction and checked on first use,
// since single-market deployments exist.
func NewEngine(api API, cfg config.DriveConfig) (*Engine, error) {
	if cfg.BoiseFolderID == "" {
		return nil, apperrors.Errorf(apperrors.KindConfig, "drive.NewEngine",
			"DRIVE_BOISE_FOLDER_ID is not configured in the .env file")
	}
	if cfg.PendingFolderID == "" {
		return nil, apperrors.Errorf(apperrors.KindConfig, "drive.NewEngine",
			"DRIVE_PENDING_FOLDER_ID is not configured in the .env file")
	}
	return &Engine{
		api:     api,
		boiseID: cfg.BoiseFolderID,
		twinID:  cfg.TwinFallsFolderID,
		pending: cfg.PendingFolderID,
	}, nil
}

// PrimaryRootID returns the Boise root, which doubles as the default root for
// the unmatched folder and the market mismatch scan.
func (e *Engine) PrimaryRootID() string {
	return e.boiseID
}

func (e *Engine) rootFor(market models.Market) (string, error) {
	if market == models.MarketTwinFalls {
		if e.twinID == "" {
			return "", apperrors.Errorf(apperrors.KindConfig, "drive.rootFor",
				"Twin Falls market is selected, but DRIVE_TWIN_FALLS_FOLDER_ID is not configured in the .env file")
		}
		return e.twinID, nil
	}
	return e.boiseID, nil
}

// sanitizeFolderName replaces path-unsafe characters with a hyphen.
func sanitizeFolderName(name string) (string, error) {
	sanitized := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "-")
	if sanitized == "" {
		return "", apperrors.Errorf(apperrors.KindParse, "drive.sanitizeFolderName",
			"folder name %q is empty after sanitization", name)
	}
	return sanitized, nil
}

// escapeQuery escapes a value for interpolation into a Drive search query.
// Backslashes go first so quote escapes are not doubled up.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// findOrCreateFolder looks for a direct child folder with the sanitized name
// and creates it if absent. The first lexical match wins; two concurrent
// placements creating the same never-seen folder can still race into
// duplicates, a known and accepted gap.
func (e *Engine) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	sanitized, err := sanitizeFolderName(name)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and name = '%s' and trashed = false",
		parentID, folderMIMEType, escapeQuery(sanitized))
	matches, err := e.api.ListAll(ctx, query)
	if err != nil {
		return "", err
	}
	if len(matches) > 0 {
		return matches[0].ID, nil
	}
	return e.api.CreateFolder(ctx, sanitized, parentID)
}

// ResolvePath maps (market, year, client) to the client folder ID, creating
// the year and client levels as needed. Calling it twice with the same triple
// returns the same folder ID.
func (e *Engine) ResolvePath(ctx context.Context, market models.Market, year, client string) (string, error) {
	rootID, err := e.rootFor(market)
	if err != nil {
		return "", err
	}
	yearID, err := e.findOrCreateFolder(ctx, year, rootID)
	if err != nil {
		return "", err
	}
	return e.findOrCreateFolder(ctx, client, yearID)
}

// PlaceFile detaches a file from all current parents, attaches it to the
// target folder and renames it. Placing an already-placed file again is a
// no-op in effect.
func (e *Engine) PlaceFile(ctx context.Context, fileID, targetFolderID, newName string) (File, error) {
	parents, err := e.api.ParentIDs(ctx, fileID)
	if err != nil {
		return File{}, err
	}
	return e.api.Move(ctx, fileID, targetFolderID, parents, newName)
}

// ContractPlacement names the destination of one contract file.
type ContractPlacement struct {
	FileID   string
	Client   string
	FileName string
	Market   models.Market
	Year     string
}

// PlacementForDate builds a ContractPlacement whose year folder comes from the
// record's entry date.
func PlacementForDate(fileID, client, fileName string, market models.Market, entryDate time.Time) ContractPlacement {
	return ContractPlacement{
		FileID:   fileID,
		Client:   client,
		FileName: fileName,
		Market:   market,
		Year:     strconv.Itoa(entryDate.Year()),
	}
}

// FileContract resolves the folder for a placement and moves the file there.
func (e *Engine) FileContract(ctx context.Context, p ContractPlacement) (File, error) {
	folderID, err := e.ResolvePath(ctx, p.Market, p.Year, p.Client)
	if err != nil {
		return File{}, err
	}
	return e.PlaceFile(ctx, p.FileID, folderID, p.FileName)
}

// ArchiveFile moves a file into the well-known unmatched folder under the
// primary root, keeping its current name.
func (e *Engine) ArchiveFile(ctx context.Context, fileID, fileName string) (string, error) {
	unmatchedID, err := e.findOrCreateFolder(ctx, unmatchedFolderName, e.boiseID)
	if err != nil {
		return "", err
	}
	moved, err := e.PlaceFile(ctx, fileID, unmatchedID, fileName)
	if err != nil {
		return "", err
	}
	return moved.ID, nil
}

// UploadToPending puts a freshly merged PDF into the pending folder under a
// timestamped throwaway name and makes it link-viewable so the UI can preview
// it before the user confirms filing.
func (e *Engine) UploadToPending(ctx context.Context, content []byte) (File, error) {
	name := fmt.Sprintf("pending_%s.pdf", time.Now().UTC().Format(time.RFC3339))
	f, err := e.api.Upload(ctx, name, e.pending, content)
	if err != nil {
		return File{}, err
	}
	if err := e.api.ShareWithLink(ctx, f.ID); err != nil {
		return File{}, err
	}
	return f, nil
}

// IsDescendant walks a file's parent chain upward until it reaches ancestorID
// (true) or runs out of parents (false). A file may have several parents; the
// first chain that reaches the ancestor short-circuits the search.
func (e *Engine) IsDescendant(ctx context.Context, childID, ancestorID string) (bool, error) {
	if childID == ancestorID {
		return true, nil
	}
	parents, err := e.api.ParentIDs(ctx, childID)
	if err != nil {
		return false, err
	}
	for _, parentID := range parents {
		ok, err := e.IsDescendant(ctx, parentID, ancestorID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
