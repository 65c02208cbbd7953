package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an email address is already
// registered. The storage layer translates its unique-constraint
// violation to this sentinel so concurrent registrations are caught even
// when the pre-insert check passes.
var ErrDuplicateEmail = errors.New("email already registered")
