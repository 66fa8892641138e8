package correction

import (
	"context"
	"fmt"

	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// MarketCorrection flags a record whose stored market disagrees with where
// its file physically lives.
type MarketCorrection struct {
	Order    store.FixableOrder `json:"order"`
	Current  models.Market      `json:"current"`
	Proposed models.Market      `json:"proposed"`
}

// MarketEngine finds records flagged twin-falls whose file actually sits
// under the Boise root and flips them back. The file's parent chain is the
// source of truth; the database field is the defect.
type MarketEngine struct {
	store  RecordStore
	placer Placer

	state State
}

func NewMarketEngine(rs RecordStore, placer Placer) *MarketEngine {
	return &MarketEngine{store: rs, placer: placer, state: StateIdle}
}

func (e *MarketEngine) State() State { return e.state }

// Scan walks every twin-falls record in both collections and keeps the ones
// whose file descends from the Boise root. Records without a file are skipped;
// there is nothing physical to disagree with.
func (e *MarketEngine) Scan(ctx context.Context) ([]MarketCorrection, error) {
	e.state = StateCounting
	boiseRoot := e.placer.PrimaryRootID()

	var mismatches []MarketCorrection
	for _, col := range store.Collections {
		orders, err := e.store.ListByMarket(ctx, col, models.MarketTwinFalls)
		if err != nil {
			e.state = StateIdle
			return nil, err
		}
		for _, order := range orders {
			if err := ctx.Err(); err != nil {
				e.state = StateIdle
				return mismatches, err
			}
			if order.PDFFileID == "" {
				continue
			}
			inBoise, err := e.placer.IsDescendant(ctx, order.PDFFileID, boiseRoot)
			if err != nil {
				e.state = StateIdle
				return mismatches, fmt.Errorf("order %s: %w", order.ID, err)
			}
			if inBoise {
				mismatches = append(mismatches, MarketCorrection{
					Order:    store.FixableOrder{Order: order, Collection: col},
					Current:  models.MarketTwinFalls,
					Proposed: models.MarketBoise,
				})
			}
		}
	}

	if len(mismatches) == 0 {
		e.state = StateIdle
	} else {
		e.state = StateReviewingBatch
	}
	return mismatches, nil
}

// Apply flips the market field and re-files each mismatched record under its
// proper root, in bounded chunks.
func (e *MarketEngine) Apply(ctx context.Context, batch []MarketCorrection) BatchResult {
	e.state = StateCorrecting
	result := runChunks(ctx, len(batch), func(i int) error {
		return e.applyOne(ctx, batch[i])
	})
	e.state = StateIdle
	return result
}

func (e *MarketEngine) applyOne(ctx context.Context, c MarketCorrection) error {
	order := c.Order
	_, err := e.placer.FileContract(ctx, drive.ContractPlacement{
		FileID:   order.PDFFileID,
		Client:   order.Client,
		FileName: order.FinalFileName,
		Market:   c.Proposed,
		Year:     fmt.Sprintf("%d", order.OrderEntryDate.Year()),
	})
	if err != nil {
		return fmt.Errorf("order %s: moving file: %w", order.ID, err)
	}
	if err := e.store.UpdateOrder(ctx, order.ID, order.Collection, map[string]interface{}{
		"market": c.Proposed,
	}); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	if err := e.store.AppendOrderModification(ctx, order.ID, order.Collection,
		fmt.Sprintf("Market corrected from %s to %s; file re-filed under the %s root.", c.Current, c.Proposed, c.Proposed)); err != nil {
		return fmt.Errorf("order %s: %w", order.ID, err)
	}
	return nil
}
