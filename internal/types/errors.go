package types

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrUnknownPurpose  = errors.New("unknown purpose")
	ErrInvalidGroup    = errors.New("invalid group")
	ErrInvalidPurpose  = errors.New("invalid purpose")
	ErrNotFound        = errors.New("not found")
	ErrMalformedLayout = errors.New("malformed layout")
)

// LayoutError reports a path under the images root that does not follow
// {client}/{light}/{device}/{recording}/{stream}[/{orientation}]/{shot}.{ext}.
type LayoutError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *LayoutError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("%s: %s: %s", ErrMalformedLayout, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: segment %q: %s", ErrMalformedLayout, e.Path, e.Segment, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrMalformedLayout }
