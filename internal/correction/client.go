package correction

import (
	"context"
	"fmt"
	"strings"

	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// ClientCorrection pairs a record with the client name the AI read off its
// contract. Transient: lives only for one review-and-confirm cycle.
type ClientCorrection struct {
	Order    store.FixableOrder `json:"order"`
	Current  string             `json:"current"`
	Proposed string             `json:"proposed"`
	Warning  string             `json:"warning,omitempty"`
}

// Fixable reports whether applying this correction would change anything.
func (c ClientCorrection) Fixable() bool {
	return c.Warning == "" && c.Proposed != "" && c.Proposed != c.Current
}

// ClientNameEngine fixes records whose client field holds a placeholder
// bucket value (for example "0-9") by re-reading the name off the filed PDF.
type ClientNameEngine struct {
	store  RecordStore
	files  FileStore
	ai     Extractor
	placer Placer

	state State
}

func NewClientNameEngine(rs RecordStore, files FileStore, ex Extractor, placer Placer) *ClientNameEngine {
	return &ClientNameEngine{store: rs, files: files, ai: ex, placer: placer, state: StateIdle}
}

// State returns the session phase for progress reporting.
func (e *ClientNameEngine) State() State { return e.state }

// Count sizes the defect set for a bad client value. A zero count is the
// "nothing to fix" terminal outcome, not an error.
func (e *ClientNameEngine) Count(ctx context.Context, badClient string) (int64, error) {
	e.state = StateCounting
	n, err := e.store.CountFixableOrders(ctx, badClient)
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

// FetchBatch pulls one page of defective records and proposes a client name
// for each, sequentially. A record whose PDF cannot be read or extracted is
// kept in the batch unchanged, carrying a warning, so one AI hiccup never
// sinks the page.
func (e *ClientNameEngine) FetchBatch(ctx context.Context, badClient, cursorToken string) ([]ClientCorrection, string, error) {
	e.state = StateProcessingBatch
	orders, next, err := e.store.GetPagedFixableOrders(ctx, badClient, batchSize, cursorToken)
	if err != nil {
		e.state = StateIdle
		return nil, "", err
	}

	batch := make([]ClientCorrection, 0, len(orders))
	for _, order := range orders {
		c := ClientCorrection{Order: order, Current: order.Client}
		proposed, err := e.proposeClient(ctx, order)
		if err != nil {
			c.Proposed = order.Client
			c.Warning = fmt.Sprintf("could not read client name: %v", err)
		} else {
			c.Proposed = proposed
		}
		batch = append(batch, c)
	}
	e.state = StateReviewingBatch
	return batch, next, nil
}

func (e *ClientNameEngine) proposeClient(ctx context.Context, order store.FixableOrder) (string, error) {
	if order.PDFFileID == "" {
		return "", fmt.Errorf("record has no PDF file")
	}
	pdf, err := e.files.Download(ctx, order.PDFFileID)
	if err != nil {
		return "", err
	}
	details, err := e.ai.ExtractContractDetails(ctx, pdf)
	if err != nil {
		return "", err
	}
	client := strings.TrimSpace(details.Client)
	if client == "" {
		return "", fmt.Errorf("extraction returned an empty client name")
	}
	return client, nil
}

// Apply commits the fixable corrections of a reviewed batch: update the client
// field, append a modification-log entry, move the file into the new client
// folder. Unchanged or warned proposals produce zero side effects.
func (e *ClientNameEngine) Apply(ctx context.Context, batch []ClientCorrection, hasMore bool) BatchResult {
	e.state = StateCorrecting
	fixable := make([]ClientCorrection, 0, len(batch))
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

func (e *ClientNameEngine) applyOne(ctx context.Context, c ClientCorrection) error {
	order := c.Order
	if err := e.store.UpdateOrder(ctx, order.ID, order.Collection, map[string]interface{}{
		"client": c.Proposed,
	}); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	if err := e.store.AppendOrderModification(ctx, order.ID, order.Collection,
		fmt.Sprintf("Client name corrected from %q to %q.", c.Current, c.Proposed)); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	if order.PDFFileID == "" {
		return nil
	}
	_, err := e.placer.FileContract(ctx, drive.ContractPlacement{
		FileID:   order.PDFFileID,
		Client:   c.Proposed,
		FileName: order.FinalFileName,
		Market:   order.Market,
		Year:     fmt.Sprintf("%d", order.OrderEntryDate.Year()),
	})
	if err != nil {
		return fmt.Errorf("order %s: moving file: %w", order.ID, err)
	}
	return nil
}
