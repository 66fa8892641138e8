// Package fileparse derives contract metadata from the naming convention used
// on historically filed PDFs, e.g. "2024-03-05_Acme_#1234 KQBL.pdf". Parsing
// failure is an expected outcome: callers fall back to AI extraction and then
// to archiving the file.
package fileparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
)

// DefaultContractNumber is recorded when a filename carries no # marker.
const DefaultContractNumber = "N/A - Imported"

// Station call letters that may appear in filenames. HD subchannels occur with
// either a hyphen or a space; matches are normalized to the spaced form.
var knownStations = []string{
	"KSRV", "KSRV-HD2",
	"KQBL", "KQBL-HD2", "KQBL-HD3",
	"KZMG", "KWYD", "KKOO", "KTPZ", "KIKX",
	"KIRQ", "KYUN", "KYUN-HD2", "KYUN-HD3",
}

var (
	leadingTokenRe  = regexp.MustCompile(`[_ ]+`)
	dateDelimiterRe = regexp.MustCompile(`[-./]`)
	contractRe      = regexp.MustCompile(`#(\S+)`)
	pdfSuffixRe     = regexp.MustCompile(`(?i)\.pdf$`)
	hdSuffixRe      = regexp.MustCompile(`(?i)[- ]?HD`)

	stationRes = buildStationPatterns()
)

func buildStationPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(knownStations))
	for _, st := range knownStations {
		expr := `(?i)\b` + strings.ReplaceAll(st, "-", "[- ]?") + `\b`
		patterns[st] = regexp.MustCompile(expr)
	}
	return patterns
}

// ParsedName holds everything the heuristic could read out of a filename.
type ParsedName struct {
	EntryDate      time.Time
	Stations       []string
	ContractNumber string
}

// Parse extracts a leading date, any station call letters, and an optional
// contract number from a filename. Only an unusable date segment is an error;
// missing stations or contract number fall back to empty/default values.
func Parse(filename string) (*ParsedName, error) {
	date, err := parseLeadingDate(filename)
	if err != nil {
		return nil, err
	}
	return &ParsedName{
		EntryDate:      date,
		Stations:       matchStations(filename),
		ContractNumber: matchContractNumber(filename),
	}, nil
}

func parseLeadingDate(filename string) (time.Time, error) {
	datePart := leadingTokenRe.Split(filename, 2)[0]
	parts := dateDelimiterRe.Split(datePart, -1)
	if len(parts) != 3 {
		return time.Time{}, apperrors.Errorf(apperrors.KindParse, "fileparse.Parse",
			"could not parse date from filename %q", filename)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, apperrors.Errorf(apperrors.KindParse, "fileparse.Parse",
				"non-numeric date component %q in %q", p, filename)
		}
		nums[i] = n
	}

	var year, month, day int
	switch {
	case len(parts[0]) == 4: // YYYY-MM-DD
		year, month, day = nums[0], nums[1], nums[2]
	case len(parts[2]) == 4: // MM-DD-YYYY
		month, day, year = nums[0], nums[1], nums[2]
	case len(parts[2]) == 2: // MM-DD-YY, pivot at 70
		month, day = nums[0], nums[1]
		if nums[2] < 70 {
			year = 2000 + nums[2]
		} else {
			year = 1900 + nums[2]
		}
	default:
		return time.Time{}, apperrors.Errorf(apperrors.KindParse, "fileparse.Parse",
			"ambiguous date format in filename %q", filename)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (month 13, Feb 30); reject anything that moved.
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, apperrors.Errorf(apperrors.KindParse, "fileparse.Parse",
			"filename %q does not contain a valid calendar date", filename)
	}
	return date, nil
}

func matchStations(filename string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, st := range knownStations {
		if !stationRes[st].MatchString(filename) {
			continue
		}
		normalized := hdSuffixRe.ReplaceAllString(st, " HD")
		if !seen[normalized] {
			seen[normalized] = true
			found = append(found, normalized)
		}
	}
	return found
}

func matchContractNumber(filename string) string {
	m := contractRe.FindStringSubmatch(filename)
	if m == nil {
		return DefaultContractNumber
	}
	return strings.TrimSpace(pdfSuffixRe.ReplaceAllString(m[1], ""))
}
