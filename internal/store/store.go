package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/database"
	"github.com/sawtoothmedia/contractdesk/internal/models"
)

// Civil dates entered by users ("fix everything filed on 2023-11-21") are
// interpreted in the station group's home time zone, never the server's local
// zone. Getting this wrong shifts queries by a day for anyone deployed in UTC.
const referenceTimeZone = "America/Denver"

// Store is the record store adapter. It owns all Order persistence; nothing
// else writes to the two collections.
type Store struct {
	db  *database.DB
	loc *time.Location
}

// New builds a Store. Fails if the reference time zone is unavailable.
func New(db *database.DB) (*Store, error) {
	loc, err := time.LoadLocation(referenceTimeZone)
	if err != nil {
		return nil, apperrors.E(apperrors.KindConfig, "store.New",
			fmt.Errorf("load %s: %w", referenceTimeZone, err))
	}
	return &Store{db: db, loc: loc}, nil
}

// FixableOrder is an order returned by a cross-collection feed, annotated with
// the collection it was read from so mutations can address the right table.
type FixableOrder struct {
	models.Order
	Collection Collection `json:"collection"`
}

// CreateOrder writes a new record into the given collection and returns its ID.
// The first modification entry is stamped server-side when the caller did not
// supply one.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, col Collection) (string, error) {
	if len(order.Modifications) == 0 {
		order.Modifications = []models.Modification{{
			Date:        time.Now().UTC(),
			Description: "Initial creation.",
		}}
	}
	if err := s.db.WithContext(ctx).Table(string(col)).Create(order).Error; err != nil {
		return "", apperrors.E(apperrors.KindExternal, "store.CreateOrder", err)
	}
	return order.ID, nil
}

// GetPagedOrders returns up to limit records from one collection ordered by
// entry date descending (record ID descending breaks ties). When cursorID is
// set the page resumes strictly after that record's position; an unresolvable
// cursor is a NotFound error. Unless includeOlder or includeArchived is set,
// results are restricted to the trailing 365 days.
func (s *Store) GetPagedOrders(ctx context.Context, limit int, cursorID string, includeArchived, includeOlder bool) ([]models.Order, error) {
	col := CollectionCurrent
	if includeArchived {
		col = CollectionArchived
	}

	q := s.db.WithContext(ctx).Table(string(col))
	if !includeOlder && !includeArchived {
		q = q.Where("order_entry_date >= ?", time.Now().AddDate(0, 0, -365))
	}

	if cursorID != "" {
		var cur models.Order
		err := s.db.WithContext(ctx).Table(string(col)).Where("id = ?", cursorID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "store.GetPagedOrders",
				"cursor record %s not found in %s", cursorID, col)
		}
		if err != nil {
			return nil, apperrors.E(apperrors.KindExternal, "store.GetPagedOrders", err)
		}
		q = q.Where("(order_entry_date, id) < (?, ?)", cur.OrderEntryDate, cur.ID)
	}

	var orders []models.Order
	err := q.Order("order_entry_date DESC, id DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, apperrors.E(apperrors.KindExternal, "store.GetPagedOrders", err)
	}
	return orders, nil
}

// GetOrderByID looks a record up in the named collection first, then falls
// back to the other one. Returns the collection it was actually found in.
func (s *Store) GetOrderByID(ctx context.Context, id string, col Collection) (*models.Order, Collection, error) {
	probes := []Collection{col}
	for _, c := range Collections {
		if c != col {
			probes = append(probes, c)
		}
	}
	for _, c := range probes {
		var order models.Order
		err := s.db.WithContext(ctx).Table(string(c)).Where("id = ?", id).First(&order).Error
		if err == nil {
			return &order, c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.E(apperrors.KindExternal, "store.GetOrderByID", err)
		}
	}
	return nil, "", apperrors.Errorf(apperrors.KindNotFound, "store.GetOrderByID", "order %s not found", id)
}

// GetOrderByPDFFileID finds the record that references a Drive file, probing
// both collections. Returns nil when no record references it.
func (s *Store) GetOrderByPDFFileID(ctx context.Context, fileID string) (*FixableOrder, error) {
	for _, col := range Collections {
		var order models.Order
		err := s.db.WithContext(ctx).Table(string(col)).Where("pdf_file_id = ?", fileID).Limit(1).First(&order).Error
		if err == nil {
			return &FixableOrder{Order: order, Collection: col}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindExternal, "store.GetOrderByPDFFileID", err)
		}
	}
	return nil, nil
}

// GetOrdersByClient returns all records for a client across both collections,
// newest entry date first.
func (s *Store) GetOrdersByClient(ctx context.Context, client string) ([]FixableOrder, error) {
	var all []FixableOrder
	for _, col := range Collections {
		var orders []models.Order
		err := s.db.WithContext(ctx).Table(string(col)).Where("client = ?", client).Find(&orders).Error
		if err != nil {
			return nil, apperrors.E(apperrors.KindExternal, "store.GetOrdersByClient", err)
		}
		for _, o := range orders {
			all = append(all, FixableOrder{Order: o, Collection: col})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].OrderEntryDate.After(all[j].OrderEntryDate)
	})
	return all, nil
}

// resolveCursor validates a cursor token against stored records. A bare ID is
// probed in both collections; a token naming a collection is checked there.
func (s *Store) resolveCursor(ctx context.Context, token string) (*Cursor, error) {
	cur, err := ParseCursor(token)
	if err != nil || cur == nil {
		return cur, err
	}
	probes := Collections
	if cur.Collection != "" {
		probes = []Collection{cur.Collection}
	}
	for _, col := range probes {
		var n int64
		err := s.db.WithContext(ctx).Table(string(col)).Where("id = ?", cur.ID).Count(&n).Error
		if err != nil {
			return nil, apperrors.E(apperrors.KindExternal, "store.resolveCursor", err)
		}
		if n > 0 {
			return &Cursor{Collection: col, ID: cur.ID}, nil
		}
	}
	return nil, apperrors.Errorf(apperrors.KindNotFound, "store.resolveCursor",
		"cursor record %s not found", cur.ID)
}

// pageAcrossCollections walks both collections in feed order applying the
// given predicate, resuming after the cursor. Within a collection rows are
// ordered by record ID ascending, giving the documented total order
// (collection rank, record ID).
func (s *Store) pageAcrossCollections(ctx context.Context, batchSize int, cur *Cursor, predicate func(*gorm.DB) *gorm.DB) ([]FixableOrder, string, error) {
	var out []FixableOrder
	for _, col := range Collections {
		if len(out) >= batchSize {
			break
		}
		if cur != nil && rank(col) < rank(cur.Collection) {
			continue // collection already exhausted on a previous page
		}
		q := predicate(s.db.WithContext(ctx).Table(string(col)))
		if cur != nil && col == cur.Collection {
			q = q.Where("id > ?", cur.ID)
		}
		var orders []models.Order
		err := q.Order("id ASC").Limit(batchSize - len(out)).Find(&orders).Error
		if err != nil {
			return nil, "", apperrors.E(apperrors.KindExternal, "store.pageAcrossCollections", err)
		}
		for _, o := range orders {
			out = append(out, FixableOrder{Order: o, Collection: col})
		}
	}

	next := ""
	if len(out) == batchSize {
		last := out[len(out)-1]
		next = NextCursor(last.Collection, last.ID)
	}
	return out, next, nil
}

// GetPagedFixableOrders pages through every record whose client field equals
// the defect value, across both collections. Returns the page and the cursor
// token for the next one ("" when this is the last page).
func (s *Store) GetPagedFixableOrders(ctx context.Context, badClient string, batchSize int, cursorToken string) ([]FixableOrder, string, error) {
	cur, err := s.resolveCursor(ctx, cursorToken)
	if err != nil {
		return nil, "", err
	}
	return s.pageAcrossCollections(ctx, batchSize, cur, func(q *gorm.DB) *gorm.DB {
		return q.Where("client = ?", badClient)
	})
}

// CountFixableOrders counts records matching the defect client value across
// both collections. The count can be stale by the time batches run; it is
// sizing information, not a snapshot.
func (s *Store) CountFixableOrders(ctx context.Context, badClient string) (int64, error) {
	var total int64
	for _, col := range Collections {
		var n int64
		err := s.db.WithContext(ctx).Table(string(col)).Where("client = ?", badClient).Count(&n).Error
		if err != nil {
			return 0, apperrors.E(apperrors.KindExternal, "store.CountFixableOrders", err)
		}
		total += n
	}
	return total, nil
}

// dayRange converts a literal civil date string (YYYY-MM-DD) into the
// half-open instant range covering that day in the reference time zone.
func (s *Store) dayRange(dateString string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", dateString, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Errorf(apperrors.KindParse, "store.dayRange",
			"invalid date string %q: %v", dateString, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// CountOrdersByDate counts records entered on the given civil date across both
// collections.
func (s *Store) CountOrdersByDate(ctx context.Context, dateString string) (int64, error) {
	start, end, err := s.dayRange(dateString)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, col := range Collections {
		var n int64
		err := s.db.WithContext(ctx).Table(string(col)).
			Where("order_entry_date >= ? AND order_entry_date < ?", start, end).
			Count(&n).Error
		if err != nil {
			return 0, apperrors.E(apperrors.KindExternal, "store.CountOrdersByDate", err)
		}
		total += n
	}
	return total, nil
}

// GetPagedOrdersByDate pages through records entered on the given civil date,
// with the same cursor contract as GetPagedFixableOrders.
func (s *Store) GetPagedOrdersByDate(ctx context.Context, dateString string, batchSize int, cursorToken string) ([]FixableOrder, string, error) {
	start, end, err := s.dayRange(dateString)
	if err != nil {
		return nil, "", err
	}
	cur, err := s.resolveCursor(ctx, cursorToken)
	if err != nil {
		return nil, "", err
	}
	return s.pageAcrossCollections(ctx, batchSize, cur, func(q *gorm.DB) *gorm.DB {
		return q.Where("order_entry_date >= ? AND order_entry_date < ?", start, end)
	})
}

// ListByMarket returns every record in one collection flagged with the given
// market. Used by the market mismatch scan.
func (s *Store) ListByMarket(ctx context.Context, col Collection, market models.Market) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Table(string(col)).Where("market = ?", market).Find(&orders).Error
	if err != nil {
		return nil, apperrors.E(apperrors.KindExternal, "store.ListByMarket", err)
	}
	return orders, nil
}

// OrdersInRange returns current-collection records in [start, end), newest
// first. Used by the dashboard.
func (s *Store) OrdersInRange(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Table(string(CollectionCurrent)).
		Where("order_entry_date >= ? AND order_entry_date < ?", start, end).
		Order("order_entry_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.E(apperrors.KindExternal, "store.OrdersInRange", err)
	}
	return orders, nil
}

// Location exposes the reference time zone for callers computing their own
// civil-date boundaries (dashboard ranges).
func (s *Store) Location() *time.Location {
	return s.loc
}

// UpdateOrder applies field updates to one record. Column names use the
// database's snake_case convention, e.g. "client", "order_entry_date".
func (s *Store) UpdateOrder(ctx context.Context, id string, col Collection, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Table(string(col)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperrors.E(apperrors.KindExternal, "store.UpdateOrder", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Errorf(apperrors.KindNotFound, "store.UpdateOrder", "order %s not found in %s", id, col)
	}
	return nil
}

// BulkUpdateOrders applies the same field updates to many records as a single
// transaction.
func (s *Store) BulkUpdateOrders(ctx context.Context, ids []string, col Collection, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(string(col)).Where("id IN ?", ids).Updates(fields).Error
	})
	if err != nil {
		return apperrors.E(apperrors.KindExternal, "store.BulkUpdateOrders", err)
	}
	return nil
}

// AppendOrderModification appends one entry to a record's modification log.
// The log is append-only: existing entries are never rewritten.
func (s *Store) AppendOrderModification(ctx context.Context, id string, col Collection, description string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Table(string(col)).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Errorf(apperrors.KindNotFound, "store.AppendOrderModification",
				"order %s not found in %s", id, col)
		}
		if err != nil {
			return err
		}
		order.Modifications = append(order.Modifications, models.Modification{
			Date:        time.Now().UTC(),
			Description: description,
		})
		return tx.Table(string(col)).Where("id = ?", id).
			Update("modifications", order.Modifications).Error
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.E(apperrors.KindExternal, "store.AppendOrderModification", err)
	}
	return nil
}

// DeleteOrder removes one record from a collection.
func (s *Store) DeleteOrder(ctx context.Context, id string, col Collection) error {
	res := s.db.WithContext(ctx).Table(string(col)).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return apperrors.E(apperrors.KindExternal, "store.DeleteOrder", res.Error)
	}
	return nil
}

// DeleteOrders removes many records from a collection in one transaction.
func (s *Store) DeleteOrders(ctx context.Context, ids []string, col Collection) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(string(col)).Where("id IN ?", ids).Delete(&models.Order{}).Error
	})
	if err != nil {
		return apperrors.E(apperrors.KindExternal, "store.DeleteOrders", err)
	}
	return nil
}
