package web

// errors.go turns handler errors into coded, user-facing responses.
//
// The technical error is logged with the request id; the client receives a
// message, a suggested action and a code support staff can look up:
//
//	FILE001 - File too large              ("too large")
//	FILE002 - No files in the request     ("no files provided")
//	FILE003 - Malformed multipart body    ("multipart", "invalid form")
//	FILE004 - File content unavailable    ("no content source")
//	UPL001  - Upload slots exhausted      ("too many concurrent uploads")
//	UPL002  - Session expired or unknown  ("session not found")
//	UPL003  - File no longer in session   ("file not found")
//	UPL004  - Request cancelled           ("context canceled")
//	UPL005  - Request timed out           ("deadline exceeded", "timed out")
//	WGT001  - Primitive composition error ("must be within")
//	WGT002  - Unknown widget preset       ("unknown preset")
//	WGT003  - Widget is disabled          ("widget disabled")
//	DB001   - Catalog not configured      ("catalog disabled")
//	DB002   - Catalog unreachable         ("connection refused")
//	RATE001 - Too many requests           ("rate limit")
//	ERR000  - Anything else
//
// Patterns match case-insensitively with strings.Contains; the first match
// wins, so specific patterns come first.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fileupload/internal/logging"
)

var (
	errSessionNotFound = errors.New("session not found")
	errFileNotFound    = errors.New("file not found")
	errUnknownPreset   = errors.New("unknown preset")
	errNoFiles         = errors.New("no files provided")
	errCatalogDisabled = errors.New("catalog disabled")
	errWidgetDisabled  = errors.New("widget disabled")
)

// UserMessage is what the client sees for an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"too large", UserMessage{"File too large", "Choose a smaller file", "FILE001"}},
	{"no files provided", UserMessage{"No files were received", "Select or drop at least one file", "FILE002"}},
	{"multipart", UserMessage{"The upload could not be read", "Please try again", "FILE003"}},
	{"invalid form", UserMessage{"The upload could not be read", "Please try again", "FILE003"}},
	{"no content source", UserMessage{"File content is not available", "Add the file again", "FILE004"}},

	{"too many concurrent uploads", UserMessage{"The server is busy", "Please wait a moment and try again", "UPL001"}},
	{"session not found", UserMessage{"Upload session expired", "Reload the page to start a new session", "UPL002"}},
	{"file not found", UserMessage{"File is no longer in this upload", "Refresh the file list", "UPL003"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
	{"timed out", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},

	{"must be within", UserMessage{"The upload widget is misconfigured", "Contact support", "WGT001"}},
	{"unknown preset", UserMessage{"Unknown upload preset", "Use one of the listed presets", "WGT002"}},
	{"widget disabled", UserMessage{"Uploads are disabled here", "Enable the widget and try again", "WGT003"}},

	{"catalog disabled", UserMessage{"Upload history is not available", "Configure DATABASE_URL to enable it", "DB001"}},
	{"connection refused", UserMessage{"Unable to reach the database", "Please try again in a few moments", "DB002"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err, or the zero value for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped message as JSON for API
// clients or plain text otherwise.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if !wantsJSON(r) {
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
