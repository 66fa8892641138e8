package drive

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"testing"

	"github.com/sawtoothmedia/contractdesk/internal/config"
	"github.com/sawtoothmedia/contractdesk/internal/models"
)

// fakeDrive is an in-memory folder tree implementing the API interface. It
// understands only the query shapes the engine actually emits.
type fakeDrive struct {
	files  map[string]*fakeFile
	nextID int
}

type fakeFile struct {
	id      string
	name    string
	mime    string
	parents []string
	content []byte
	shared  bool
}

func newFakeDrive(rootIDs ...string) *fakeDrive {
	fd := &fakeDrive{files: map[string]*fakeFile{}}
	for _, id := range rootIDs {
		fd.files[id] = &fakeFile{id: id, name: id, mime: folderMIMEType}
	}
	return fd
}

func (fd *fakeDrive) newID() string {
	fd.nextID++
	return fmt.Sprintf("gen-%d", fd.nextID)
}

func (fd *fakeDrive) addFolder(id, name, parentID string) {
	fd.files[id] = &fakeFile{id: id, name: name, mime: folderMIMEType, parents: []string{parentID}}
}

func (fd *fakeDrive) addPDF(id, name, parentID string) {
	fd.files[id] = &fakeFile{id: id, name: name, mime: pdfMIMEType, parents: []string{parentID}}
}

var queryRe = regexp.MustCompile(`^'([^']+)' in parents and mimeType = '([^']+)'(?: and name = '((?:[^'\\]|\\')*)')? and trashed = false$`)

func (fd *fakeDrive) ListAll(_ context.Context, query string) ([]File, error) {
	m := queryRe.FindStringSubmatch(query)
	if m == nil {
		return nil, fmt.Errorf("fakeDrive: unsupported query %q", query)
	}
	parent, mime, name := m[1], m[2], m[3]
	var out []File
	for _, f := range fd.files {
		if f.mime != mime {
			continue
		}
		if name != "" && f.name != name {
			continue
		}
		for _, p := range f.parents {
			if p == parent {
				out = append(out, File{ID: f.id, Name: f.name})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (fd *fakeDrive) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	id := fd.newID()
	fd.addFolder(id, name, parentID)
	return id, nil
}

func (fd *fakeDrive) ParentIDs(_ context.Context, fileID string) ([]string, error) {
	f, ok := fd.files[fileID]
	if !ok {
		return nil, fmt.Errorf("fakeDrive: no file %s", fileID)
	}
	return append([]string(nil), f.parents...), nil
}

func (fd *fakeDrive) Move(_ context.Context, fileID, addParent string, removeParents []string, newName string) (File, error) {
	f, ok := fd.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("fakeDrive: no file %s", fileID)
	}
	remaining := f.parents[:0]
	for _, p := range f.parents {
		removed := false
		for _, r := range removeParents {
			if p == r {
				removed = true
				break
			}
		}
		if !removed {
			remaining = append(remaining, p)
		}
	}
	f.parents = append(remaining, addParent)
	f.name = newName
	return File{ID: f.id, Name: f.name, WebViewLink: "https://fake/" + f.id}, nil
}

func (fd *fakeDrive) Upload(_ context.Context, name, parentID string, content []byte) (File, error) {
	id := fd.newID()
	fd.files[id] = &fakeFile{id: id, name: name, mime: pdfMIMEType, parents: []string{parentID}, content: content}
	return File{ID: id, Name: name, WebViewLink: "https://fake/" + id}, nil
}

func (fd *fakeDrive) ReplaceContent(_ context.Context, fileID string, content []byte) error {
	f, ok := fd.files[fileID]
	if !ok {
		return fmt.Errorf("fakeDrive: no file %s", fileID)
	}
	f.content = content
	return nil
}

func (fd *fakeDrive) Download(_ context.Context, fileID string) ([]byte, error) {
	f, ok := fd.files[fileID]
	if !ok {
		return nil, fmt.Errorf("fakeDrive: no file %s", fileID)
	}
	return f.content, nil
}

func (fd *fakeDrive) ShareWithLink(_ context.Context, fileID string) error {
	f, ok := fd.files[fileID]
	if !ok {
		return fmt.Errorf("fakeDrive: no file %s", fileID)
	}
	f.shared = true
	return nil
}

func testEngine(t *testing.T, fd *fakeDrive) *Engine {
	t.Helper()
	eng, err := NewEngine(fd, config.DriveConfig{
		BoiseFolderID:     "boise-root",
		TwinFallsFolderID: "twin-root",
		PendingFolderID:   "pending",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestResolvePathCreatesThenReuses(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	eng := testEngine(t, fd)
	ctx := context.Background()

	first, err := eng.ResolvePath(ctx, models.MarketBoise, "2024", "Acme Corp")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	second, err := eng.ResolvePath(ctx, models.MarketBoise, "2024", "Acme Corp")
	if err != nil {
		t.Fatalf("ResolvePath again: %v", err)
	}
	if first != second {
		t.Errorf("resolved different folders for same path: %s vs %s", first, second)
	}

	folders := 0
	for _, f := range fd.files {
		if f.mime == folderMIMEType && f.id != "boise-root" && f.id != "twin-root" && f.id != "pending" {
			folders++
		}
	}
	if folders != 2 {
		t.Errorf("created %d folders, want 2 (year + client)", folders)
	}
}

func TestResolvePathSanitizesClientName(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	eng := testEngine(t, fd)

	folderID, err := eng.ResolvePath(context.Background(), models.MarketBoise, "2024", `A/B?C: "Co"`)
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got := fd.files[folderID].name; got != "A-B-C- -Co-" {
		t.Errorf("sanitized folder name = %q", got)
	}
}

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Corp", "Acme Corp"},
		{"O'Reilly Auto", `O\'Reilly Auto`},
		{`Smith \ Sons`, `Smith \\ Sons`},
		{`back\slash'n quote`, `back\\slash\'n quote`},
	}
	for _, tc := range tests {
		if got := escapeQuery(tc.in); got != tc.want {
			t.Errorf("escapeQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolvePathTwinFallsUnconfigured(t *testing.T) {
	fd := newFakeDrive("boise-root", "pending")
	eng, err := NewEngine(fd, config.DriveConfig{
		BoiseFolderID:   "boise-root",
		PendingFolderID: "pending",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := eng.ResolvePath(context.Background(), models.MarketTwinFalls, "2024", "Acme"); err == nil {
		t.Error("expected config error for missing Twin Falls root")
	}
}

func TestPlaceFileMovesAndRenames(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	fd.addFolder("old-folder", "old", "boise-root")
	fd.addPDF("file-1", "pending_x.pdf", "old-folder")
	eng := testEngine(t, fd)
	ctx := context.Background()

	target, err := eng.ResolvePath(ctx, models.MarketBoise, "2024", "Acme Corp")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	moved, err := eng.PlaceFile(ctx, "file-1", target, "Acme Corp 2024-05-01 #123.pdf")
	if err != nil {
		t.Fatalf("PlaceFile: %v", err)
	}
	if moved.Name != "Acme Corp 2024-05-01 #123.pdf" {
		t.Errorf("name = %q", moved.Name)
	}
	f := fd.files["file-1"]
	if len(f.parents) != 1 || f.parents[0] != target {
		t.Errorf("parents = %v, want [%s]", f.parents, target)
	}

	// Placing again is a no-op in effect.
	if _, err := eng.PlaceFile(ctx, "file-1", target, moved.Name); err != nil {
		t.Fatalf("second PlaceFile: %v", err)
	}
	if len(f.parents) != 1 || f.parents[0] != target {
		t.Errorf("after re-place, parents = %v", f.parents)
	}
}

func TestArchiveFileKeepsName(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	fd.addPDF("file-1", "mystery.pdf", "pending")
	eng := testEngine(t, fd)

	if _, err := eng.ArchiveFile(context.Background(), "file-1", "mystery.pdf"); err != nil {
		t.Fatalf("ArchiveFile: %v", err)
	}
	f := fd.files["file-1"]
	if f.name != "mystery.pdf" {
		t.Errorf("name changed to %q", f.name)
	}
	parent := fd.files[f.parents[0]]
	if parent.name != unmatchedFolderName {
		t.Errorf("parent folder = %q, want %q", parent.name, unmatchedFolderName)
	}
	if parent.parents[0] != "boise-root" {
		t.Errorf("unmatched folder parent = %q", parent.parents[0])
	}
}

func TestUploadToPendingShares(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	eng := testEngine(t, fd)

	f, err := eng.UploadToPending(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("UploadToPending: %v", err)
	}
	stored := fd.files[f.ID]
	if !stored.shared {
		t.Error("uploaded file was not link-shared")
	}
	if stored.parents[0] != "pending" {
		t.Errorf("parent = %q", stored.parents[0])
	}
}

func TestIsDescendantMultiParent(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	fd.addFolder("mid", "2024", "twin-root")
	fd.addPDF("file-1", "a.pdf", "mid")
	// Second parent chain reaching the boise root.
	fd.files["file-1"].parents = append(fd.files["file-1"].parents, "boise-root")
	eng := testEngine(t, fd)
	ctx := context.Background()

	ok, err := eng.IsDescendant(ctx, "file-1", "boise-root")
	if err != nil {
		t.Fatalf("IsDescendant: %v", err)
	}
	if !ok {
		t.Error("expected file-1 to descend from boise-root via second parent")
	}

	ok, err = eng.IsDescendant(ctx, "mid", "boise-root")
	if err != nil {
		t.Fatalf("IsDescendant: %v", err)
	}
	if ok {
		t.Error("mid should not descend from boise-root")
	}
}

// A record corrected from the numeric bucket to its real client name must end
// up in a folder named after the client, not the bucket.
func TestFileContractMovesOutOfBucketFolder(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending")
	fd.addFolder("year-2023", "2023", "boise-root")
	fd.addFolder("bucket", "0-9", "year-2023")
	fd.addPDF("file-1", "7th Street Grill.pdf", "bucket")
	eng := testEngine(t, fd)
	ctx := context.Background()

	placement := ContractPlacement{
		FileID:   "file-1",
		Client:   "Acme Corp",
		FileName: "7th Street Grill.pdf",
		Market:   models.MarketBoise,
		Year:     "2023",
	}
	if _, err := eng.FileContract(ctx, placement); err != nil {
		t.Fatalf("FileContract: %v", err)
	}

	f := fd.files["file-1"]
	parent := fd.files[f.parents[0]]
	if parent.name != "Acme Corp" {
		t.Errorf("parent folder = %q, want Acme Corp", parent.name)
	}
	if len(f.parents) != 1 {
		t.Errorf("file kept extra parents: %v", f.parents)
	}
	// Existing year folder was reused rather than duplicated.
	if parent.parents[0] != "year-2023" {
		t.Errorf("client folder parent = %q, want year-2023", parent.parents[0])
	}
}

func TestScanForImportableFiles(t *testing.T) {
	fd := newFakeDrive("boise-root", "twin-root", "pending", "import-src")
	fd.addFolder("client-a", "Alpha Motors", "import-src")
	fd.addFolder("client-b", "Beta Bakery", "import-src")
	fd.addFolder("a-2021", "2021", "client-a")
	fd.addFolder("a-2022", "2022", "client-a")
	fd.addFolder("b-2021", "2021", "client-b")
	fd.addPDF("pdf-1", "KQBL 2021-03-01 #55.pdf", "a-2021")
	fd.addPDF("pdf-2", "KQBL 2021-04-01 #56.pdf", "a-2021")
	fd.addPDF("pdf-3", "should not appear.pdf", "a-2022")
	eng := testEngine(t, fd)

	scans, err := eng.ScanForImportableFiles(context.Background(), "import-src", "2021")
	if err != nil {
		t.Fatalf("ScanForImportableFiles: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("got %d client scans, want 1 (Beta Bakery's 2021 folder is empty)", len(scans))
	}
	scan := scans[0]
	if scan.ClientName != "Alpha Motors" {
		t.Errorf("client = %q", scan.ClientName)
	}
	if len(scan.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(scan.Files))
	}
	for _, f := range scan.Files {
		if f.Year != "2021" || f.ClientName != "Alpha Motors" || f.SourceParentID != "a-2021" {
			t.Errorf("unexpected importable file %+v", f)
		}
	}
}
