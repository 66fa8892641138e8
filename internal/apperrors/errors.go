package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies a failure at its point of origin. Downstream code matches on
// the kind, never on message text, except as a last resort for foreign errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindNotFound
	KindCredential
	KindQuota
	KindPermission
	KindExternal
	KindParse
	KindPartialBatch
)

// Error is a kind-tagged error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind tag.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kind-tagged error from a format string.
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsNotFound reports whether err carries the NotFound kind.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// KindOf returns the kind tag on err. Untagged errors are classified by
// message sniffing, which exists only for errors raised outside this codebase.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return sniff(err)
}

// FromGoogleAPI tags a Google API client error using its HTTP status code.
func FromGoogleAPI(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401:
			return E(KindCredential, op, err)
		case 403:
			return E(KindPermission, op, err)
		case 404:
			return E(KindNotFound, op, err)
		case 429:
			return E(KindQuota, op, err)
		}
		return E(KindExternal, op, err)
	}
	return E(KindExternal, op, err)
}

func sniff(err error) Kind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "credential"):
		return KindCredential
	case strings.Contains(msg, "quota") || strings.Contains(msg, "billing") ||
		strings.Contains(msg, "resource has been exhausted") || strings.Contains(msg, "429"):
		return KindQuota
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "403"):
		return KindPermission
	case strings.Contains(msg, "folder id"):
		return KindConfig
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return KindNotFound
	}
	return KindUnknown
}

// Friendly maps an error to the message shown to the user. The context string
// names the action that failed, e.g. "contract scanning".
func Friendly(err error, context string) string {
	if err == nil {
		return fmt.Sprintf("An unexpected error occurred during %s.", context)
	}

	switch KindOf(err) {
	case KindCredential:
		return "Operation failed. Please check if your GOOGLE_API_KEY or Service Account credentials are configured correctly in your .env file."
	case KindQuota:
		return "Operation failed due to a quota issue. Your project may be exceeding the request limits. Please check the quotas for the Generative Language API in your Google Cloud Console. It may take some time for billing changes to apply."
	case KindPermission:
		return "Permission denied. The service account may not have the required permissions for Google Drive or other services."
	case KindConfig:
		return "Configuration error: a required Google Drive folder ID or credential is missing from your .env file. Please check DRIVE_BOISE_FOLDER_ID, DRIVE_TWIN_FALLS_FOLDER_ID and DRIVE_PENDING_FOLDER_ID."
	}

	// Verbatim passthrough for anything we cannot classify.
	return err.Error()
}
