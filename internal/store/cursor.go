package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
)

// Collection names one of the two logical order collections.
type Collection string

const (
	CollectionCurrent  Collection = "orders"
	CollectionArchived Collection = "archived_orders"
)

// Collections lists both collections in feed order: the current collection is
// walked to exhaustion before the archived one.
var Collections = []Collection{CollectionCurrent, CollectionArchived}

// Records dated before this year live in the archived collection. Moving a
// record across the boundary is not implemented; see CollectionForDate callers.
const archiveThresholdYear = 2022

// CollectionForDate returns the collection an order with the given entry date
// belongs to.
func CollectionForDate(entryDate time.Time) Collection {
	if entryDate.Year() < archiveThresholdYear {
		return CollectionArchived
	}
	return CollectionCurrent
}

func rank(c Collection) int {
	if c == CollectionCurrent {
		return 0
	}
	return 1
}

// Cursor is the resume point for cross-collection pagination. The two
// collections have independent ID spaces, so position alone is ambiguous; the
// cursor carries the source collection explicitly and the feed follows one
// total order: (collection rank, record ID ascending).
type Cursor struct {
	Collection Collection
	ID         string
}

// String encodes the cursor as an opaque token, e.g. "orders:3f2a...".
func (c Cursor) String() string {
	return string(c.Collection) + ":" + c.ID
}

// ParseCursor decodes a cursor token. A bare record ID (no collection prefix)
// is accepted for compatibility with single-collection feeds; the store
// resolves it by probing both collections.
func ParseCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	if col, id, ok := strings.Cut(token, ":"); ok {
		c := Collection(col)
		if c != CollectionCurrent && c != CollectionArchived {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "store.ParseCursor",
				"unknown collection %q in cursor", col)
		}
		if id == "" {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "store.ParseCursor",
				"cursor %q has no record ID", token)
		}
		return &Cursor{Collection: c, ID: id}, nil
	}
	return &Cursor{ID: token}, nil
}

// NextCursor builds the token callers pass to resume after the given record.
func NextCursor(col Collection, id string) string {
	return fmt.Sprintf("%s:%s", col, id)
}
