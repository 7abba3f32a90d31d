package loader

import (
	"errors"
	"fmt"
)

// Error categories returned by Load. Use errors.Is to test for them.
var (
	// ErrMalformedDocument reports invalid JSON, an unsupported version, an out-of-range
	// index, an unknown component type or element shape, or a missing mandatory field.
	ErrMalformedDocument = errors.New("malformed glTF document")

	// ErrMissingAccessors reports a document that declares no accessors.
	ErrMissingAccessors = fmt.Errorf("%w: document declares no accessors", ErrMalformedDocument)

	// ErrLayout reports an accessor or buffer view whose byte span exceeds its buffer.
	ErrLayout = errors.New("accessor layout exceeds buffer bounds")

	// ErrTransport reports a failure to fetch the document, a blob or an image.
	ErrTransport = errors.New("transport error")

	// ErrClosed reports a load started after Close.
	ErrClosed = errors.New("loader is closed")
)

// malformed wraps a formatted message with ErrMalformedDocument.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, args...))
}

// layoutError wraps a formatted message with ErrLayout.
func layoutError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLayout, fmt.Sprintf(format, args...))
}

// transportError wraps err with ErrTransport while keeping err reachable through errors.Is and errors.As.
func transportError(uri string, err error) error {
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, uri, err)
}
