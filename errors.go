package persisted

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-persisted/rules"
)

// ErrNoValue reports that no record is stored under the key.
var ErrNoValue = errors.New("persisted: no stored value")

// ErrRuleRejected is wrapped by errors from validation rules that evaluated to
// false.
var ErrRuleRejected = rules.ErrRejected

// Operation names carried by CodecError and StoreError.
const (
	OpEncode = "encode"
	OpDecode = "decode"
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
)

// CodecError reports a value that could not be encoded, or a stored record
// that could not be decoded.
type CodecError struct {
	Op  string
	Key string
	Err error
}

func (e *CodecError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persisted: %s %s: %v", e.Op, describeKey(e.Key), e.Err)
}

func (e *CodecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StoreError reports a failure of the store engine itself.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persisted: store %s %s: %v", e.Op, describeKey(e.Key), e.Err)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsCodecError reports whether err is, or wraps, a *CodecError.
func IsCodecError(err error) bool {
	var codecErr *CodecError
	return errors.As(err, &codecErr)
}

// IsStoreError reports whether err is, or wraps, a *StoreError.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

func describeKey(key string) string {
	if key == "" {
		return "key=<empty>"
	}
	return fmt.Sprintf("key=%q", key)
}
