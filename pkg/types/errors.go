package types

import "errors"

// Error conditions reported by the pipeline stages. Stages wrap these with
// context; callers match with errors.Is.
var (
	ErrLinkNotFound            = errors.New("csv link not found")
	ErrFetchFailed             = errors.New("fetch failed")
	ErrMalformedTable          = errors.New("malformed table")
	ErrInsufficientExpirations = errors.New("insufficient expirations")
	ErrIVNotFound              = errors.New("iv not found")
	ErrPublishFailed           = errors.New("publish failed")
)
