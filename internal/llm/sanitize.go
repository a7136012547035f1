package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// maxDiagnosticChars bounds the raw-reply prefix carried on a parse failure.
const maxDiagnosticChars = 500

// Fence grammar: optional fence-open with optional language tag, payload,
// optional fence-close. At most one of each is stripped.
var (
	reFenceOpen  = regexp.MustCompile("^```[A-Za-z0-9]*[ \t]*\r?\n?")
	reFenceClose = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripCodeFence removes one leading and one trailing code-fence marker if
// present and trims surrounding whitespace. A bare JSON string passes
// through unchanged.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if loc := reFenceOpen.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if loc := reFenceClose.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}

// MalformedResponseError reports an undecodable model reply together with a
// truncated prefix of the raw text for diagnostics.
type MalformedResponseError struct {
	Snippet string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %v (reply prefix: %q)", common.ErrMalformedResponse, e.Err, e.Snippet)
}

func (e *MalformedResponseError) Unwrap() error {
	return common.ErrMalformedResponse
}

// ParseExtraction strips fence markers and decodes the remainder into the
// three-key extraction shape. Validation is intentionally loose: missing
// top-level keys decode as absent, unknown keys are ignored, and a field
// whose value has the wrong type is treated as absent rather than fatal.
// Only undecodable JSON is malformed; the schema check stays advisory.
func ParseExtraction(raw string) (entity.ExtractedInvoice, error) {
	payload := StripCodeFence(raw)

	var inv entity.ExtractedInvoice
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		// Unmarshal skips mistyped fields and keeps decoding, so on a
		// type error inv holds every well-typed field already.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return entity.ExtractedInvoice{}, &MalformedResponseError{Snippet: snippet(raw), Err: err}
		}
	}
	return inv, nil
}

func snippet(raw string) string {
	if len(raw) > maxDiagnosticChars {
		return raw[:maxDiagnosticChars]
	}
	return raw
}
