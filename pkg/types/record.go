package types

import "errors"

// Record is an entity held in a client-side collection. RecordID returns the
// server-assigned numeric identifier. Field returns the value of the named
// JSON field or nil when the record has no such field; list views search,
// filter and sort through it.
type Record interface {
	RecordID() int64
	Field(name string) any
}

// Checker is implemented by records that can verify their identity fields
// after decoding. Collections drop records whose Check fails.
type Checker interface {
	Check() error
}

// Record and collection errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrInvalidRecord   = errors.New("invalid record data")
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownField    = errors.New("unknown field")
)
