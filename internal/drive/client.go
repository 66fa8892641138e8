package drive

import (
	"bytes"
	"context"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/config"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"
	pdfMIMEType    = "application/pdf"

	fileFields = "id, name, webViewLink, webContentLink"
	listPage   = 100
)

// Client implements API against the real Google Drive service using a
// service account that impersonates a Workspace user.
type Client struct {
	svc *gdrive.Service
}

// NewJWTConfig builds the service-account JWT config shared by the Drive and
// directory clients.
func NewJWTConfig(cfg config.GoogleConfig, scopes ...string) (*jwt.Config, error) {
	if cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" || cfg.ImpersonateUser == "" {
		return nil, apperrors.Errorf(apperrors.KindConfig, "drive.NewJWTConfig",
			"Google service account credentials are not configured in .env file")
	}
	return &jwt.Config{
		Email: cfg.ServiceAccountEmail,
		// .env files carry the key with literal \n sequences.
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Subject:    cfg.ImpersonateUser,
		Scopes:     scopes,
		TokenURL:   google.JWTTokenURL,
	}, nil
}

// NewClient constructs a Drive client.
func NewClient(ctx context.Context, cfg config.GoogleConfig) (*Client, error) {
	jwtCfg, err := NewJWTConfig(cfg, gdrive.DriveScope)
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, apperrors.E(apperrors.KindCredential, "drive.NewClient", err)
	}
	return &Client{svc: svc}, nil
}

// ListAll pages through a files.list query until the continuation token runs out.
func (c *Client) ListAll(ctx context.Context, query string) ([]File, error) {
	var all []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			PageSize(listPage).
			OrderBy("name").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, apperrors.FromGoogleAPI("drive.ListAll", err)
		}
		for _, f := range resp.Files {
			all = append(all, File{
				ID:             f.Id,
				Name:           f.Name,
				WebViewLink:    f.WebViewLink,
				WebContentLink: f.WebContentLink,
			})
		}
		if resp.NextPageToken == "" {
			return all, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	folder, err := c.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{parentID},
	}).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", apperrors.FromGoogleAPI("drive.CreateFolder", err)
	}
	return folder.Id, nil
}

func (c *Client) ParentIDs(ctx context.Context, fileID string) ([]string, error) {
	f, err := c.svc.Files.Get(fileID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.FromGoogleAPI("drive.ParentIDs", err)
	}
	return f.Parents, nil
}

func (c *Client) Move(ctx context.Context, fileID, addParent string, removeParents []string, newName string) (File, error) {
	f, err := c.svc.Files.Update(fileID, &gdrive.File{Name: newName}).
		AddParents(addParent).
		RemoveParents(strings.Join(removeParents, ",")).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, apperrors.FromGoogleAPI("drive.Move", err)
	}
	return File{ID: f.Id, Name: f.Name, WebViewLink: f.WebViewLink, WebContentLink: f.WebContentLink}, nil
}

func (c *Client) Upload(ctx context.Context, name, parentID string, content []byte) (File, error) {
	f, err := c.svc.Files.Create(&gdrive.File{
		Name:    name,
		Parents: []string{parentID},
	}).
		Media(bytes.NewReader(content), googleapi.ContentType(pdfMIMEType)).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, apperrors.FromGoogleAPI("drive.Upload", err)
	}
	return File{ID: f.Id, Name: f.Name, WebViewLink: f.WebViewLink, WebContentLink: f.WebContentLink}, nil
}

func (c *Client) ReplaceContent(ctx context.Context, fileID string, content []byte) error {
	_, err := c.svc.Files.Update(fileID, &gdrive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(pdfMIMEType)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.FromGoogleAPI("drive.ReplaceContent", err)
	}
	return nil
}

func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, apperrors.FromGoogleAPI("drive.Download", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.E(apperrors.KindExternal, "drive.Download", err)
	}
	return data, nil
}

func (c *Client) ShareWithLink(ctx context.Context, fileID string) error {
	_, err := c.svc.Permissions.Create(fileID, &gdrive.Permission{
		Role: "reader",
		Type: "anyone",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return apperrors.FromGoogleAPI("drive.ShareWithLink", err)
	}
	return nil
}
