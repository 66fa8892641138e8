package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/models"
)

type fakeStore struct {
	orders []models.Order
	loc    *time.Location
}

func (fs *fakeStore) OrdersInRange(_ context.Context, start, end time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range fs.orders {
		if !o.OrderEntryDate.Before(start) && o.OrderEntryDate.Before(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (fs *fakeStore) Location() *time.Location { return fs.loc }

type fakeGen struct{ prompt string }

func (fg *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	fg.prompt = prompt
	return "Busy month.", nil
}

func TestLoadWindows(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc)

	fs := &fakeStore{loc: loc, orders: []models.Order{
		{ID: "a", Market: models.MarketBoise, ContractType: models.ContractOriginal, OrderEntryDate: today},
		{ID: "b", Market: models.MarketBoise, ContractType: models.ContractRevision, OrderEntryDate: today.AddDate(0, 0, -3)},
		{ID: "c", Market: models.MarketTwinFalls, ContractType: models.ContractCancellation, OrderEntryDate: today.AddDate(0, 0, -20)},
		{ID: "d", Market: models.MarketBoise, ContractType: models.ContractOriginal, OrderEntryDate: today.AddDate(0, 0, -40)},
	}}

	data, err := New(fs, &fakeGen{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Daily.Total != 1 {
		t.Errorf("daily total = %d", data.Daily.Total)
	}
	if data.Weekly.Total != 2 {
		t.Errorf("weekly total = %d", data.Weekly.Total)
	}
	if data.Monthly.Total != 3 {
		t.Errorf("monthly total = %d", data.Monthly.Total)
	}
	if data.Monthly.Revisions != 1 || data.Monthly.Cancellations != 1 {
		t.Errorf("monthly = %+v", data.Monthly)
	}
	if data.Monthly.ByMarket["boise"] != 2 || data.Monthly.ByMarket["twin-falls"] != 1 {
		t.Errorf("byMarket = %v", data.Monthly.ByMarket)
	}
}

func TestInsightsPromptCarriesTotals(t *testing.T) {
	fg := &fakeGen{}
	svc := New(&fakeStore{loc: time.UTC}, fg)

	data := Data{
		Daily:   Stats{Total: 2},
		Weekly:  Stats{Total: 9},
		Monthly: Stats{Total: 31, Revisions: 4, ByMarket: map[string]int{"boise": 31}},
	}
	out, err := svc.Insights(context.Background(), data)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if out != "Busy month." {
		t.Errorf("out = %q", out)
	}
	for _, want := range []string{"Filed today: 2", "last 7 days: 9", "last 30 days: 31", "boise: 31"} {
		if !strings.Contains(fg.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
