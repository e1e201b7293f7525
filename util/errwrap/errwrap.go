// Package errwrap contains small error-composition helpers for wrapping and
// aggregating errors. The scheduler uses Wrapf for SetDefaultCommand errors.
package errwrap

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Wrapf annotates err with a message, preserving the original as its cause.
// If err is nil, it returns nil so callers can wrap unconditionally.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Append combines reterr and err into a multierror. Either may be nil; the
// non-nil one is returned unchanged, and nil is returned if both are nil.
// This makes `reterr = errwrap.Append(reterr, err)` safe to call in a loop.
func Append(reterr, err error) error {
	if reterr == nil {
		return err
	}
	if err == nil {
		return reterr
	}
	return multierror.Append(reterr, err)
}

// String renders err as a string, returning "" for a nil error instead of
// panicking, which is handy in Logf calls that might receive a nil error.
func String(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
