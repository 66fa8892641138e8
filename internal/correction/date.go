package correction

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/fileparse"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// DateCorrection pairs a record with the entry date derived from its filename
// or, failing that, from re-reading the PDF.
type DateCorrection struct {
	Order    store.FixableOrder `json:"order"`
	Current  time.Time          `json:"current"`
	Proposed time.Time          `json:"proposed"`
	Warning  string             `json:"warning,omitempty"`
}

// Fixable reports whether the proposed date differs from the stored one.
func (c DateCorrection) Fixable() bool {
	return c.Warning == "" && !c.Proposed.IsZero() && civilDate(c.Proposed) != civilDate(c.Current)
}

// DateEngine fixes records sharing one wrong entry date, typically a whole
// import round that landed on the import day instead of the contract day.
type DateEngine struct {
	store  RecordStore
	files  FileStore
	ai     Extractor
	placer Placer

	state State
}

func NewDateEngine(rs RecordStore, files FileStore, ex Extractor, placer Placer) *DateEngine {
	return &DateEngine{store: rs, files: files, ai: ex, placer: placer, state: StateIdle}
}

func (e *DateEngine) State() State { return e.state }

// Count sizes the defect set for a specific wrong civil date (YYYY-MM-DD).
func (e *DateEngine) Count(ctx context.Context, badDate string) (int64, error) {
	e.state = StateCounting
	n, err := e.store.CountOrdersByDate(ctx, badDate)
	if err != nil {
		e.state = StateIdle
		return 0, err
	}
	if n == 0 {
		e.state = StateIdle
		return 0, nil
	}
	e.state = StateAwaitingBatchStart
	return n, nil
}

// FetchBatch pulls one page of records entered on the bad date and proposes a
// corrected date per record: the filename heuristic first, AI extraction when
// the filename is unparseable, and a warning when both fail. The warned record
// is a candidate for ArchiveAndRemove.
func (e *DateEngine) FetchBatch(ctx context.Context, badDate, cursorToken string) ([]DateCorrection, string, error) {
	e.state = StateProcessingBatch
	orders, next, err := e.store.GetPagedOrdersByDate(ctx, badDate, batchSize, cursorToken)
	if err != nil {
		e.state = StateIdle
		return nil, "", err
	}

	batch := make([]DateCorrection, 0, len(orders))
	for _, order := range orders {
		c := DateCorrection{Order: order, Current: order.OrderEntryDate}
		proposed, err := e.proposeDate(ctx, order)
		if err != nil {
			c.Proposed = order.OrderEntryDate
			c.Warning = fmt.Sprintf("could not determine a date: %v", err)
		} else {
			c.Proposed = proposed
		}
		batch = append(batch, c)
	}
	e.state = StateReviewingBatch
	return batch, next, nil
}

func (e *DateEngine) proposeDate(ctx context.Context, order store.FixableOrder) (time.Time, error) {
	parsed, err := fileparse.Parse(order.FinalFileName)
	if err == nil {
		return parsed.EntryDate, nil
	}
	if order.PDFFileID == "" {
		return time.Time{}, fmt.Errorf("filename unparseable and record has no PDF file")
	}
	pdf, err := e.files.Download(ctx, order.PDFFileID)
	if err != nil {
		return time.Time{}, err
	}
	return e.ai.ExtractContractDate(ctx, pdf)
}

// Apply commits the fixable corrections: update the entry date, append a log
// entry, and move the file when the year folder changes. Records whose new
// date crosses the archive boundary keep their current collection; only the
// date field moves.
func (e *DateEngine) Apply(ctx context.Context, batch []DateCorrection, hasMore bool) BatchResult {
	e.state = StateCorrecting
	fixable := make([]DateCorrection, 0, len(batch))
	for _, c := range batch {
		if c.Fixable() {
			fixable = append(fixable, c)
		}
	}

	result := runChunks(ctx, len(fixable), func(i int) error {
		return e.applyOne(ctx, fixable[i])
	})

	if hasMore {
		e.state = StateAwaitingNextBatch
	} else {
		e.state = StateIdle
	}
	return result
}

func (e *DateEngine) applyOne(ctx context.Context, c DateCorrection) error {
	order := c.Order
	if err := e.store.UpdateOrder(ctx, order.ID, order.Collection, map[string]interface{}{
		"order_entry_date": c.Proposed,
	}); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	if err := e.store.AppendOrderModification(ctx, order.ID, order.Collection,
		fmt.Sprintf("Order entry date corrected from %s to %s.", civilDate(c.Current), civilDate(c.Proposed))); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}

	if store.CollectionForDate(c.Proposed) != order.Collection {
		log.Printf("⚠️ Order %s now dated %s but stays in %s; collections are not rebalanced by date corrections",
			order.ID, civilDate(c.Proposed), order.Collection)
	}

	if order.PDFFileID == "" || c.Proposed.Year() == c.Current.Year() {
		return nil
	}
	_, err := e.placer.FileContract(ctx, drive.ContractPlacement{
		FileID:   order.PDFFileID,
		Client:   order.Client,
		FileName: order.FinalFileName,
		Market:   order.Market,
		Year:     fmt.Sprintf("%d", c.Proposed.Year()),
	})
	if err != nil {
		return fmt.Errorf("order %s: moving file: %w", order.ID, err)
	}
	return nil
}

// ArchiveAndRemove is the skip path for a record whose date could not be
// determined at all: the file goes to the unmatched folder and the record is
// deleted so it stops matching the defect query.
func (e *DateEngine) ArchiveAndRemove(ctx context.Context, c DateCorrection) error {
	order := c.Order
	if order.PDFFileID != "" {
		if _, err := e.placer.ArchiveFile(ctx, order.PDFFileID, order.FinalFileName); err != nil {
			return fmt.Errorf("order %s: archiving file: %w", order.ID, err)
		}
	}
	if err := e.store.DeleteOrder(ctx, order.ID, order.Collection); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	return nil
}
