package fileparse

import (
	"testing"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		filename string
		want     time.Time
	}{
		{"2024-03-05_Acme_#1234.pdf", date(2024, 3, 5)},
		{"2024.03.05_Acme.pdf", date(2024, 3, 5)},
		{"03-05-2024 Acme.pdf", date(2024, 3, 5)},
		{"3-5-2024 Acme.pdf", date(2024, 3, 5)},
		{"12-31-69 Acme.pdf", date(2069, 12, 31)},
		{"01-15-70 Acme.pdf", date(1970, 1, 15)},
		{"06-01-24 Acme.pdf", date(2024, 6, 1)},
		{"2024/03/05 Acme.pdf", date(2024, 3, 5)},
	}

	for _, tc := range tests {
		got, err := Parse(tc.filename)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.filename, err)
			continue
		}
		if !got.EntryDate.Equal(tc.want) {
			t.Errorf("Parse(%q).EntryDate = %s, want %s",
				tc.filename, got.EntryDate.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestParseFailures(t *testing.T) {
	tests := []string{
		"contract.pdf",             // no date segment
		"Acme order 2024.pdf",      // date does not split into three parts
		"aa-bb-cc notes.pdf",       // non-numeric components
		"2024-02-30 Acme.pdf",      // not a valid calendar date
		"13-45-2020 Acme.pdf",      // month and day out of range
		"123-04-056 Acme.pdf",      // ambiguous year position
	}

	for _, filename := range tests {
		_, err := Parse(filename)
		if err == nil {
			t.Errorf("Parse(%q): expected error", filename)
			continue
		}
		if apperrors.KindOf(err) != apperrors.KindParse {
			t.Errorf("Parse(%q): kind = %v, want Parse", filename, apperrors.KindOf(err))
		}
	}
}

func TestParseStations(t *testing.T) {
	got, err := Parse("2024-03-05 KQBL KSRV-HD2 spot.pdf")
	if err != nil {
		t.Fatal(err)
	}
	// "KSRV-HD2" matches both the base call sign and the subchannel, so a
	// subchannel file lands under the parent station as well.
	want := map[string]bool{"KQBL": true, "KSRV": true, "KSRV HD2": true}
	if len(got.Stations) != len(want) {
		t.Fatalf("Stations = %v, want %v", got.Stations, want)
	}
	for _, st := range got.Stations {
		if !want[st] {
			t.Errorf("unexpected station %q in %v", st, got.Stations)
		}
	}
}

func TestParseStationNormalization(t *testing.T) {
	// Hyphenated and spaced HD suffixes collapse to a single spaced form;
	// the base call sign is always reported alongside the subchannel.
	for _, filename := range []string{
		"2024-03-05 KYUN-HD2.pdf",
		"2024-03-05 KYUN HD2.pdf",
	} {
		got, err := Parse(filename)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Stations) != 2 || got.Stations[0] != "KYUN" || got.Stations[1] != "KYUN HD2" {
			t.Errorf("Parse(%q).Stations = %v, want [KYUN KYUN HD2]", filename, got.Stations)
		}
	}
}

func TestParseWholeWordMatching(t *testing.T) {
	// "KQBLX" must not match KQBL.
	got, err := Parse("2024-03-05 KQBLX promo.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Stations) != 0 {
		t.Errorf("Stations = %v, want none", got.Stations)
	}
}

func TestParseContractNumber(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"2024-03-05_Acme_#1234.pdf", "1234"},
		{"2024-03-05 Acme #A-77 KQBL.pdf", "A-77"},
		{"2024-03-05 Acme.pdf", DefaultContractNumber},
	}
	for _, tc := range tests {
		got, err := Parse(tc.filename)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.filename, err)
			continue
		}
		if got.ContractNumber != tc.want {
			t.Errorf("Parse(%q).ContractNumber = %q, want %q", tc.filename, got.ContractNumber, tc.want)
		}
	}
}
