package competitor

import "errors"

// ErrInvalidCatalog reports a malformed or inconsistent catalog.
var ErrInvalidCatalog = errors.New("invalid competitor catalog")
