package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestKindOfTagged(t *testing.T) {
	err := E(KindQuota, "ai.extract", errors.New("rate limited"))
	if KindOf(err) != KindQuota {
		t.Errorf("KindOf(tagged) = %v, want KindQuota", KindOf(err))
	}

	// Tags survive wrapping.
	wrapped := fmt.Errorf("proposing correction: %w", err)
	if KindOf(wrapped) != KindQuota {
		t.Errorf("KindOf(wrapped) = %v, want KindQuota", KindOf(wrapped))
	}
}

func TestKindOfSniffsForeignErrors(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"invalid API key supplied", KindCredential},
		{"Resource has been exhausted (e.g. check quota)", KindQuota},
		{"googleapi: Error 403: permission denied", KindPermission},
		{"the root folder ID is not configured", KindConfig},
		{"document not found", KindNotFound},
		{"connection reset by peer", KindUnknown},
	}
	for _, tc := range tests {
		if got := KindOf(errors.New(tc.msg)); got != tc.want {
			t.Errorf("KindOf(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestFromGoogleAPI(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{401, KindCredential},
		{403, KindPermission},
		{404, KindNotFound},
		{429, KindQuota},
		{500, KindExternal},
	}
	for _, tc := range tests {
		err := FromGoogleAPI("drive.move", &googleapi.Error{Code: tc.code})
		if got := KindOf(err); got != tc.want {
			t.Errorf("FromGoogleAPI(code=%d): kind = %v, want %v", tc.code, got, tc.want)
		}
	}

	if FromGoogleAPI("drive.move", nil) != nil {
		t.Error("FromGoogleAPI(nil) should be nil")
	}
}

func TestFriendly(t *testing.T) {
	quota := E(KindQuota, "ai.extract", errors.New("429"))
	if msg := Friendly(quota, "contract scanning"); !strings.Contains(msg, "quota") {
		t.Errorf("quota message missing explanation: %q", msg)
	}

	// Unclassifiable errors pass through verbatim.
	raw := errors.New("something odd happened")
	if msg := Friendly(raw, "x"); msg != "something odd happened" {
		t.Errorf("passthrough = %q", msg)
	}
}
