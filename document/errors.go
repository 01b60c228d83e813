package document

import (
	"errors"

	"github.com/npillmayer/livedoc/tree"
)

// Errors returned by document operations. Clients should test for them
// with errors.Is, as they are usually wrapped with more detail.
var (
	ErrNotFound            = errors.New("no such element")
	ErrAmbiguousPath       = errors.New("path matches more than one element")
	ErrNoParent            = errors.New("element has no parent")
	ErrBadParameter        = errors.New("bad parameter")
	ErrParse               = tree.ErrParse
	ErrInternalConsistency = errors.New("internal consistency violated")
	ErrGeneration          = errors.New("batch out of sequence")
)

// InternalConsistencyError signals a violated index invariant. Document
// operations panic with an *InternalConsistencyError, as the document
// cannot safely be used any more.
type InternalConsistencyError struct {
	Msg string
}

func (e *InternalConsistencyError) Error() string {
	return "livedoc.document: " + e.Msg
}

// Unwrap makes errors.Is(e, ErrInternalConsistency) hold.
func (e *InternalConsistencyError) Unwrap() error {
	return ErrInternalConsistency
}
