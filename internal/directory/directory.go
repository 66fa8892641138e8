// Package directory looks up salespeople in the Google Workspace user
// directory so contracts can be attributed to the rep who sold them.
package directory

import (
	"context"
	"fmt"
	"strings"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/config"
	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/models"
)

// salesOrgUnit restricts searches to the sales team's organizational unit.
const salesOrgUnit = "/Email Footer/Sales"

const maxResults = 20

// Client searches Workspace users via the Admin SDK directory API.
type Client struct {
	svc        *admin.Service
	customerID string
}

// NewClient builds a directory client reusing the Drive service account with
// the read-only user scope.
func NewClient(ctx context.Context, cfg config.GoogleConfig) (*Client, error) {
	if cfg.CustomerID == "" {
		return nil, apperrors.Errorf(apperrors.KindConfig, "directory.NewClient",
			"GOOGLE_CUSTOMER_ID is not configured in the .env file")
	}
	jwtCfg, err := drive.NewJWTConfig(cfg, admin.AdminDirectoryUserReadonlyScope)
	if err != nil {
		return nil, err
	}
	svc, err := admin.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, apperrors.E(apperrors.KindCredential, "directory.NewClient", err)
	}
	return &Client{svc: svc, customerID: cfg.CustomerID}, nil
}

// SearchSalespeople returns sales-org users whose name or email starts with
// the query, ordered by family name. An empty query lists the whole team up
// to the page limit.
func (c *Client) SearchSalespeople(ctx context.Context, query string) ([]models.SalespersonInfo, error) {
	q := fmt.Sprintf("orgUnitPath='%s'", salesOrgUnit)
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		q = fmt.Sprintf("%s (name:%s* OR email:%s*)", q, trimmed, trimmed)
	}

	resp, err := c.svc.Users.List().
		Customer(c.customerID).
		Query(q).
		MaxResults(maxResults).
		OrderBy("familyName").
		Projection("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.FromGoogleAPI("directory.SearchSalespeople", err)
	}

	people := make([]models.SalespersonInfo, 0, len(resp.Users))
	for _, u := range resp.Users {
		info := models.SalespersonInfo{
			ID:       u.Id,
			Email:    u.PrimaryEmail,
			PhotoURL: u.ThumbnailPhotoUrl,
		}
		if u.Name != nil {
			info.Name = u.Name.FullName
		}
		people = append(people, info)
	}
	return people, nil
}
