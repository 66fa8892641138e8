package utils

import (
	"bytes"
	"testing"
)

func TestDataURIRoundTrip(t *testing.T) {
	payload := []byte("%PDF-1.4 fake")
	uri := EncodeDataURI("application/pdf", payload)

	mimeType, data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if mimeType != "application/pdf" {
		t.Errorf("mimeType = %q", mimeType)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload mismatch: %q", data)
	}
}

func TestDecodeDataURIRejectsGarbage(t *testing.T) {
	tests := []struct {
		name, uri string
	}{
		{"no separator", "no comma here"},
		{"invalid base64", "data:application/pdf;base64,!!!"},
		{"missing data prefix", "application/pdf;base64,Zm9v"},
		{"missing base64 marker", "data:application/pdf,Zm9v"},
	}
	for _, tc := range tests {
		if _, _, err := DecodeDataURI(tc.uri); err == nil {
			t.Errorf("%s: DecodeDataURI(%q) succeeded, want error", tc.name, tc.uri)
		}
	}
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range tests {
		if got := SanitizeJSON(tc.in); got != tc.want {
			t.Errorf("SanitizeJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
