package resource

import "errors"

// ErrNotFound is returned when an operation references an unknown resource id.
var ErrNotFound = errors.New("resource not found")
