package docpatch

import (
	"errors"
	"fmt"
)

var (
	ErrOverlap       = errors.New("overlapping edits")
	ErrDocPresent    = errors.New("doc block already present")
	ErrNoDeclaration = errors.New("declaration not found")
	ErrNoBody        = errors.New("struct has no braced body")
	ErrFieldNotFound = errors.New("field not found in struct body")
	ErrEmptyDoc      = errors.New("empty doc block")
	ErrSkipped       = errors.New("skipped by overwrite gate")
)

// OverlapError reports two edits of one file whose ranges intersect in original coordinates. It matches ErrOverlap.
type OverlapError struct {
	First  Edit
	Second Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: %v conflicts with %v", ErrOverlap, e.First, e.Second)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}

// RangeError reports an edit whose range falls outside the original file.
type RangeError struct {
	Edit Edit
	Size int
}

func (e *RangeError) Error() string {
	r := e.Edit.Span()
	return fmt.Sprintf("edit range [%d,%d) outside file of %d bytes (%s)", r.Start, r.End, e.Size, e.Edit.Label)
}
