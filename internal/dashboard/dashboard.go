// Package dashboard aggregates recent filing activity for the landing page
// and produces an AI-written summary of it.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/models"
)

// RecordStore is the store surface the dashboard reads.
type RecordStore interface {
	OrdersInRange(ctx context.Context, start, end time.Time) ([]models.Order, error)
	Location() *time.Location
}

// Generator writes the insights paragraph.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Stats summarizes one window of filing activity.
type Stats struct {
	Total         int            `json:"total"`
	Revisions     int            `json:"revisions"`
	Cancellations int            `json:"cancellations"`
	ByMarket      map[string]int `json:"byMarket"`
	Orders        []models.Order `json:"orders"`
}

// Data is the landing-page payload: today, the trailing week and the trailing
// month, all bounded by civil days in the reference time zone.
type Data struct {
	Daily   Stats `json:"daily"`
	Weekly  Stats `json:"weekly"`
	Monthly Stats `json:"monthly"`
}

// Service builds dashboard payloads.
type Service struct {
	store RecordStore
	ai    Generator
}

func New(rs RecordStore, gen Generator) *Service {
	return &Service{store: rs, ai: gen}
}

func buildStats(orders []models.Order) Stats {
	stats := Stats{ByMarket: map[string]int{}, Orders: orders}
	for _, o := range orders {
		stats.Total++
		stats.ByMarket[string(o.Market)]++
		switch o.ContractType {
		case models.ContractRevision:
			stats.Revisions++
		case models.ContractCancellation:
			stats.Cancellations++
		}
	}
	return stats
}

// Load computes the three stat windows ending now.
func (s *Service) Load(ctx context.Context) (Data, error) {
	loc := s.store.Location()
	now := time.Now().In(loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := todayStart.AddDate(0, 0, 1)

	var data Data
	windows := []struct {
		start time.Time
		stats *Stats
	}{
		{todayStart, &data.Daily},
		{todayStart.AddDate(0, 0, -6), &data.Weekly},
		{todayStart.AddDate(0, 0, -29), &data.Monthly},
	}
	for _, w := range windows {
		orders, err := s.store.OrdersInRange(ctx, w.start, tomorrow)
		if err != nil {
			return Data{}, err
		}
		*w.stats = buildStats(orders)
	}
	return data, nil
}

// Insights asks the model for a short plain-language readout of the monthly
// numbers.
func (s *Service) Insights(ctx context.Context, data Data) (string, error) {
	var markets []string
	for market, n := range data.Monthly.ByMarket {
		markets = append(markets, fmt.Sprintf("%s: %d", market, n))
	}
	prompt := fmt.Sprintf(`You are an assistant for a radio advertising sales team.
Summarize this month's contract filing activity in 2-3 friendly sentences.
Do not use markdown.

Filed today: %d
Filed in the last 7 days: %d
Filed in the last 30 days: %d (revisions: %d, cancellations: %d)
By market over the last 30 days: %s`,
		data.Daily.Total, data.Weekly.Total, data.Monthly.Total,
		data.Monthly.Revisions, data.Monthly.Cancellations,
		strings.Join(markets, ", "))
	return s.ai.Generate(ctx, prompt)
}
