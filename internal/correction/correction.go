// Package correction holds the three batch correction engines: client name,
// entry date and market. Each engine scans the record store for one defect,
// proposes a fix per record and applies the accepted fixes in bounded
// concurrency chunks, reporting partial success rather than rolling back.
package correction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/ai"
	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/store"
)

// State names one phase of a correction session. Transitions run
// Idle -> Counting -> AwaitingBatchStart -> ProcessingBatch -> ReviewingBatch
// -> Correcting -> AwaitingNextBatch (or back to Idle when the last page is
// done). After a correction round, totals are re-counted from the first page;
// old cursors are invalid once the defect set has shrunk.
type State string

const (
	StateIdle               State = "idle"
	StateCounting           State = "counting"
	StateAwaitingBatchStart State = "awaiting_batch_start"
	StateProcessingBatch    State = "processing_batch"
	StateReviewingBatch     State = "reviewing_batch"
	StateCorrecting         State = "correcting"
	StateAwaitingNextBatch  State = "awaiting_next_batch"
)

// batchSize is both the page size of a review batch and the concurrency bound
// while applying it.
const batchSize = 10

// RecordStore is the slice of the record store the engines read and mutate.
type RecordStore interface {
	CountFixableOrders(ctx context.Context, badClient string) (int64, error)
	GetPagedFixableOrders(ctx context.Context, badClient string, batchSize int, cursorToken string) ([]store.FixableOrder, string, error)
	CountOrdersByDate(ctx context.Context, dateString string) (int64, error)
	GetPagedOrdersByDate(ctx context.Context, dateString string, batchSize int, cursorToken string) ([]store.FixableOrder, string, error)
	ListByMarket(ctx context.Context, col store.Collection, market models.Market) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id string, col store.Collection, fields map[string]interface{}) error
	AppendOrderModification(ctx context.Context, id string, col store.Collection, description string) error
	DeleteOrder(ctx context.Context, id string, col store.Collection) error
}

// Placer is the slice of the folder placement engine the engines relocate
// files through.
type Placer interface {
	FileContract(ctx context.Context, p drive.ContractPlacement) (drive.File, error)
	ArchiveFile(ctx context.Context, fileID, fileName string) (string, error)
	IsDescendant(ctx context.Context, childID, ancestorID string) (bool, error)
	PrimaryRootID() string
}

// FileStore downloads contract bytes for re-extraction.
type FileStore interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Extractor is the AI fallback for records whose filename gives nothing away.
type Extractor interface {
	ExtractContractDetails(ctx context.Context, pdf []byte) (ai.ContractDetails, error)
	ExtractContractDate(ctx context.Context, pdf []byte) (time.Time, error)
}

// BatchResult reports a correction round: how many items landed and what went
// wrong with the rest. Failures never roll back successes.
type BatchResult struct {
	SuccessCount int      `json:"successCount"`
	Errors       []string `json:"errors"`
}

// Err returns a partial-batch error when any item failed, nil otherwise.
func (r BatchResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return apperrors.Errorf(apperrors.KindPartialBatch, "correction",
		"%d succeeded, %d failed: %s", r.SuccessCount, len(r.Errors), strings.Join(r.Errors, "; "))
}

// runChunks applies fn to n items in chunks of batchSize. Items within a chunk
// run in parallel; the next chunk never starts before the previous one fully
// settles. Cancellation is checked between chunks only, never mid-chunk.
func runChunks(ctx context.Context, n int, fn func(i int) error) BatchResult {
	var result BatchResult
	var mu sync.Mutex

	for start := 0; start < n; start += batchSize {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Sprintf("stopped before item %d: %v", start, err))
			mu.Unlock()
			break
		}
		end := start + batchSize
		if end > n {
			end = n
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := fn(i)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Errors = append(result.Errors, err.Error())
				} else {
					result.SuccessCount++
				}
			}(i)
		}
		wg.Wait()
	}
	return result
}

// civilDate formats a timestamp as the civil date users see in the tool.
func civilDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
