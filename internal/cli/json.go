package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Global JSON output flag
var jsonOutput bool

// Response is the standard JSON envelope for command output other than
// the validation report itself.
type Response struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`
	Meta  *Meta      `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Count int `json:"count,omitempty"`
}

// outputJSON writes any value as indented JSON.
func outputJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(w io.Writer, data any, meta *Meta) {
	outputJSON(w, Response{OK: true, Data: data, Meta: meta})
}

// outputError outputs an error JSON response.
func outputError(w io.Writer, code, message string, details any, suggestion string) {
	outputJSON(w, Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    message,
			Details:    details,
			Suggestion: suggestion,
		},
	})
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}

// handleError reports err according to the output mode. In JSON mode the
// envelope goes to w and the returned error is silent; in text mode the
// error (with suggestion) is returned for Execute to print.
func handleError(w io.Writer, code string, err error, suggestion string) error {
	if jsonOutput {
		outputError(w, code, err.Error(), nil, suggestion)
		return &silentError{err: err}
	}
	if suggestion != "" {
		return fmt.Errorf("%w\n\n%s", err, suggestion)
	}
	return err
}

// handleErrorMsg is handleError for a plain message.
func handleErrorMsg(w io.Writer, code, message, suggestion string) error {
	return handleError(w, code, errors.New(message), suggestion)
}
