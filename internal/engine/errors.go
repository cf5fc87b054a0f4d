package engine

import (
	"context"
	"errors"
)

// Remote failure classes. EntityFetcher implementations wrap one of these.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrRateLimited      = errors.New("remote quota exhausted")
	ErrTransient        = errors.New("transient remote failure")
	ErrMalformed        = errors.New("malformed input")
	ErrCommentsDisabled = errors.New("comments are disabled")
)

// Kind is the failure classification recorded on batch items.
type Kind string

// Kinds reported by KindOf.
const (
	KindNone        Kind = ""
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindTransient   Kind = "transient"
	KindMalformed   Kind = "malformed"
	KindCanceled    Kind = "canceled"
	KindUnknown     Kind = "unknown"
)

// KindOf classifies err. A nil error has KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCommentsDisabled):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	default:
		return KindUnknown
	}
}
