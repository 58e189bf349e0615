package database

import "errors"

var (
	// ErrNotFound is returned when a query or a write matched zero rows.
	// For owned writes this deliberately covers both "no such id" and
	// "id belongs to another user".
	ErrNotFound = errors.New("record not found")

	// ErrCorruptRow is returned when a persisted row violates its expected
	// shape on read, e.g. unparseable metadata JSON. Reconstruction fails
	// loudly instead of defaulting.
	ErrCorruptRow = errors.New("corrupt row")
)
