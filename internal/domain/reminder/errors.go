package reminder

import "errors"

var (
	ErrStoreRead       = errors.New("failed to read reminder candidates")
	ErrContactNotFound = errors.New("owner contact not found")
	ErrMissingEmail    = errors.New("owner has no email address")
)
