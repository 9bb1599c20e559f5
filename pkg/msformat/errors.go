// Package msformat provides the shared error taxonomy and the collaborator
// interfaces (ProgressSink, Logger, SpectrumSource, Accessor) that every
// format reader and accessor in this module implements or consumes.
package msformat

import (
	"fmt"

	"github.com/pkg/errors"
)

// IOError wraps an underlying stream failure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err with the operation that failed.
func NewIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(&IOError{Op: op, Err: err}, "op=%s", op)
}

// FormatVariant names the specific flavor of malformed data encountered.
type FormatVariant string

const (
	VariantMalformedXML    FormatVariant = "malformed-xml"
	VariantMalformedPeaks  FormatVariant = "malformed-peaks"
	VariantMalformedBase64 FormatVariant = "malformed-base64"
	VariantMalformedZlib   FormatVariant = "malformed-zlib"
	VariantTruncated       FormatVariant = "truncated"
	VariantMalformedHeader FormatVariant = "malformed-header"
)

// FormatError reports a malformed-file condition with the byte offset at
// which it was detected.
type FormatError struct {
	Variant FormatVariant
	Offset  int64
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Variant, e.Offset, e.Message)
}

// NewFormatError constructs a FormatError, attaching a stack via pkg/errors
// so diagnostics retain the call site that detected the corruption.
func NewFormatError(variant FormatVariant, offset int64, message string) error {
	return errors.WithStack(&FormatError{Variant: variant, Offset: offset, Message: message})
}

// UnrecognizedVersionError describes an unrecognized schema version. No
// reader in this module checks format versions, so none returns it,
// whatever the ParseFilesWithUnknownVersion option says.
type UnrecognizedVersionError struct {
	Version string
}

func (e *UnrecognizedVersionError) Error() string {
	return fmt.Sprintf("unrecognized schema version %q", e.Version)
}

// NotCachedError is returned (as LastError) when a by-index/by-scan lookup
// is attempted before the reader has cached its spectra.
type NotCachedError struct {
	Op string
}

func (e *NotCachedError) Error() string {
	return fmt.Sprintf("%s: reader has not cached its spectra", e.Op)
}

// AbortedError signals a cooperative cancellation via ProgressSink.Aborted.
type AbortedError struct{}

func (e *AbortedError) Error() string { return "operation aborted" }

// IsAborted reports whether err is (or wraps) an AbortedError.
func IsAborted(err error) bool {
	var a *AbortedError
	return errors.As(err, &a)
}
