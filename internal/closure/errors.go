package closure

import "errors"

// ErrAlreadyClosed means another close completed for an overlapping period
// between the caller resolving its view and committing. It is a terminal
// conflict: retrying would silently move the caller's close intent onto the
// next period, so the caller must re-fetch current state and decide.
var ErrAlreadyClosed = errors.New("period already closed by a concurrent close")

// ErrFeedUnavailable wraps transient transaction feed failures. Safe to retry
// with backoff at the calling layer.
var ErrFeedUnavailable = errors.New("transaction feed unavailable")

// ErrStoreUnavailable wraps transient closure store failures. Retrying a
// close is safe only before the commit; retrying a read is always safe.
var ErrStoreUnavailable = errors.New("closure store unavailable")
