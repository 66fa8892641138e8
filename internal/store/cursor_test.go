package store

import (
	"testing"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
)

func TestParseCursor(t *testing.T) {
	tests := []struct {
		token   string
		wantCol Collection
		wantID  string
		wantErr bool
	}{
		{"", "", "", false},
		{"orders:abc-123", CollectionCurrent, "abc-123", false},
		{"archived_orders:xyz", CollectionArchived, "xyz", false},
		{"bare-record-id", "", "bare-record-id", false},
		{"mystery_table:abc", "", "", true},
		{"orders:", "", "", true},
	}

	for _, tc := range tests {
		cur, err := ParseCursor(tc.token)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCursor(%q): expected error", tc.token)
			} else if apperrors.KindOf(err) != apperrors.KindNotFound {
				t.Errorf("ParseCursor(%q): kind = %v, want NotFound", tc.token, apperrors.KindOf(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCursor(%q): %v", tc.token, err)
			continue
		}
		if tc.token == "" {
			if cur != nil {
				t.Errorf("ParseCursor(\"\") = %+v, want nil", cur)
			}
			continue
		}
		if cur.Collection != tc.wantCol || cur.ID != tc.wantID {
			t.Errorf("ParseCursor(%q) = {%s %s}, want {%s %s}",
				tc.token, cur.Collection, cur.ID, tc.wantCol, tc.wantID)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	token := NextCursor(CollectionArchived, "42")
	cur, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("ParseCursor(%q): %v", token, err)
	}
	if cur.String() != token {
		t.Errorf("round trip: %q -> %q", token, cur.String())
	}
}

func TestCollectionForDate(t *testing.T) {
	tests := []struct {
		date string
		want Collection
	}{
		{"2021-12-31", CollectionArchived},
		{"2022-01-01", CollectionCurrent},
		{"2024-06-01", CollectionCurrent},
		{"1998-05-20", CollectionArchived},
	}
	for _, tc := range tests {
		d, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := CollectionForDate(d); got != tc.want {
			t.Errorf("CollectionForDate(%s) = %s, want %s", tc.date, got, tc.want)
		}
	}
}

func TestDayRangeUsesReferenceZone(t *testing.T) {
	loc, err := time.LoadLocation(referenceTimeZone)
	if err != nil {
		t.Fatal(err)
	}
	s := &Store{loc: loc}

	start, end, err := s.dayRange("2023-11-21")
	if err != nil {
		t.Fatal(err)
	}

	if start.Location().String() != referenceTimeZone {
		t.Errorf("start zone = %s, want %s", start.Location(), referenceTimeZone)
	}
	if !end.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("range is not one civil day: %s .. %s", start, end)
	}

	// Nov 21 in Denver is UTC-7: the range must start at 07:00 UTC, not midnight.
	if utc := start.UTC(); utc.Hour() != 7 {
		t.Errorf("start in UTC = %s, want 07:00", utc)
	}

	if _, _, err := s.dayRange("not-a-date"); err == nil {
		t.Error("expected parse error for invalid date string")
	} else if apperrors.KindOf(err) != apperrors.KindParse {
		t.Errorf("kind = %v, want Parse", apperrors.KindOf(err))
	}
}

func TestRankOrdering(t *testing.T) {
	if rank(CollectionCurrent) >= rank(CollectionArchived) {
		t.Error("current collection must sort before archived in the feed order")
	}
}
