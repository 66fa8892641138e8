// Package drive holds the folder placement engine and the thin wrapper around
// the Google Drive API it runs on. The wrapper is an interface so the engine
// and everything above it can be tested against an in-memory fake.
package drive

import "context"

// File is the subset of Drive file metadata this service cares about.
type File struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// API is the narrow slice of the Drive surface the placement engine uses.
// Implementations must page through listings transparently: ListAll returns
// every match regardless of how many listing calls that takes.
type API interface {
	// ListAll runs a Drive query and returns all matches, ordered by name.
	ListAll(ctx context.Context, query string) ([]File, error)

	// CreateFolder makes a folder under parentID and returns its ID.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// ParentIDs returns the parent folder IDs of a file. Drive files may
	// have more than one parent.
	ParentIDs(ctx context.Context, fileID string) ([]string, error)

	// Move re-parents and renames a file: removeParents are detached,
	// addParent becomes the sole remaining parent.
	Move(ctx context.Context, fileID, addParent string, removeParents []string, newName string) (File, error)

	// Upload creates a new PDF file under parentID.
	Upload(ctx context.Context, name, parentID string, content []byte) (File, error)

	// ReplaceContent rewrites a file's bytes in place, keeping its ID.
	ReplaceContent(ctx context.Context, fileID string, content []byte) error

	// Download fetches a file's bytes.
	Download(ctx context.Context, fileID string) ([]byte, error)

	// ShareWithLink grants anyone-with-the-link read access.
	ShareWithLink(ctx context.Context, fileID string) error
}
