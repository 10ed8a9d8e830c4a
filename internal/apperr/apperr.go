// Package apperr classifies run failures into fetch, parse, I/O, and
// configuration errors.
package apperr

import (
	"errors"
	"fmt"
)

// FetchError reports a failure retrieving the source page
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a match block that does not have the expected structure.
// Block is the zero-based index of the block in document order, or -1 when
// the document as a whole could not be parsed.
type ParseError struct {
	Block int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("parse document: %v", e.Err)
	}
	return fmt.Sprintf("parse match block %d: %s: %v", e.Block, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a filesystem failure
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConfigError reports an invalid setting or command-line input
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Kind returns "fetch", "parse", "io", "config", or "unknown" for err
func Kind(err error) string {
	var fetchErr *FetchError
	var parseErr *ParseError
	var ioErr *IOError
	var configErr *ConfigError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &configErr):
		return "config"
	default:
		return "unknown"
	}
}
