package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Kind classifies a failed request.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindUnreachable
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindServer
	KindDecode
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindUnreachable:  "unreachable",
	KindBadRequest:   "bad_request",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
	KindServer:       "server",
	KindDecode:       "decode",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// User-facing messages per kind.
const (
	MsgUnreachable  = "No se puede conectar con el servidor. Verifica que el backend esté corriendo."
	MsgBadRequest   = "Los datos enviados no son válidos."
	MsgUnauthorized = "La sesión expiró o no es válida. Inicie sesión nuevamente."
	MsgForbidden    = "No tiene permisos para realizar esta acción."
	MsgNotFound     = "El recurso ya no existe."
	MsgConflict     = "Ya existe un registro con esos datos."
	MsgServer       = "Error del servidor. Intente más tarde."
	MsgDecode       = "La respuesta del servidor no es válida."
)

// Error is returned for every failed request. Message is safe to show to
// the user; ServerText keeps what the server said, if anything.
type Error struct {
	Kind       Kind
	Status     int
	Field      string // colliding field for conflicts, when identified
	Message    string
	ServerText string
	Err        error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ConflictRule maps uniqueness violations mentioning any of Patterns to a
// field-specific message. A pattern only counts as a whole word: the
// characters around it must not be letters or digits, so "ruc" does not
// match "constructor".
type ConflictRule struct {
	Field    string
	Patterns []string
	Message  string
}

func (r ConflictRule) matches(lower string) bool {
	for _, p := range r.Patterns {
		if p != "" && containsWord(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start, end := offset+i, offset+i+len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// uniquenessWords are the phrases servers use when a unique constraint
// rejects a write.
var uniquenessWords = []string{
	"duplicate",
	"duplicad",
	"unique",
	"already exists",
	"ya existe",
	"ya está registrado",
	"ya esta registrado",
}

func mentionsUniqueness(lower string) bool {
	for _, w := range uniquenessWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

const maxServerText = 300

// serverText extracts a readable message from a response body: the
// message, error or detail member of a JSON object, a JSON string, or the
// trimmed raw text.
func serverText(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return truncate(strings.TrimSpace(s))
			}
		}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return truncate(strings.TrimSpace(s))
	}
	return truncate(raw)
}

func truncate(s string) string {
	if r := []rune(s); len(r) > maxServerText {
		return string(r[:maxServerText]) + "..."
	}
	return s
}

// classify turns a non-2xx response into an *Error.
func classify(status int, body []byte, rules []ConflictRule) *Error {
	text := serverText(body)
	lower := strings.ToLower(string(body))
	e := &Error{Status: status, ServerText: text}

	if status == http.StatusConflict || (status >= 400 && status != http.StatusUnauthorized &&
		status != http.StatusForbidden && status != http.StatusNotFound && mentionsUniqueness(lower)) {
		e.Kind = KindConflict
		e.Message = MsgConflict
		for _, r := range rules {
			if r.matches(lower) {
				e.Field = r.Field
				e.Message = r.Message
				break
			}
		}
		return e
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindBadRequest
		e.Message = MsgBadRequest
		if text != "" {
			e.Message = text
		}
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.Message = MsgUnauthorized
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = MsgForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = MsgNotFound
	case status >= 500:
		e.Kind = KindServer
		e.Message = MsgServer
	default:
		e.Kind = KindUnknown
		e.Message = fmt.Sprintf("Respuesta inesperada del servidor (HTTP %d).", status)
		if text != "" {
			e.Message = text
		}
	}
	return e
}

// Message returns the user-facing text for err: the Message of an *Error,
// or err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Retryable reports whether repeating the request could succeed: the
// server was unreachable or failed internally.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnreachable, KindServer, KindUnknown:
		return true
	default:
		return false
	}
}
