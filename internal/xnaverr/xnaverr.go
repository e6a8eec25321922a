// Package xnaverr defines the small sentinel set this module wraps its
// own errors against with fmt.Errorf("...: %w", err), so callers can
// classify a failure with errors.Is without parsing message text.
package xnaverr

import "errors"

// ErrIO marks a failure performing network or filesystem I/O (dial,
// accept, read, write, open).
var ErrIO = errors.New("xnav: i/o failure")

// ErrConfig marks a failure loading or validating configuration.
var ErrConfig = errors.New("xnav: invalid configuration")

// ErrHTTP marks a failure parsing or framing an HTTP/1.1 message on the
// wire.
var ErrHTTP = errors.New("xnav: malformed http message")
