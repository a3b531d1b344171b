package codec

import "errors"

// ErrNotConfigured is returned by Func when one of its functions is nil.
var ErrNotConfigured = errors.New("codec: function not configured")

// ErrEmptyPayload is returned when a stored blob is present but empty.
var ErrEmptyPayload = errors.New("codec: empty payload")
