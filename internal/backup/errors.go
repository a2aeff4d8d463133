package backup

import "fmt"

// Stages at which a backup can fail.
const (
	StageRead   = "read local data"
	StageImages = "upload images"
	StageCommit = "commit documents"
)

// Error is a fatal backup failure.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backup failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(stage string, err error) *Error {
	return &Error{Stage: stage, Err: err}
}
