package persist

import (
	"errors"
	"fmt"
)

var (
	// ErrOffline means no remote attempt was made; the snapshot is queued.
	ErrOffline = errors.New("offline: remote save deferred")

	// ErrQueueExhausted is reported when a queued snapshot ran out of
	// attempts and was dropped. It needs a manual save to retry.
	ErrQueueExhausted = errors.New("retry attempts exhausted")

	// ErrNotFound is returned by Load when neither store has the project.
	ErrNotFound = errors.New("project not found")
)

// NetworkError wraps a failed remote call.
type NetworkError struct {
	ProjectID string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote save of %s failed: %v", e.ProjectID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// LocalStoreError wraps a failed local read or write. It never blocks the
// remote path but is always reported.
type LocalStoreError struct {
	Op        string
	ProjectID string
	Err       error
}

func (e *LocalStoreError) Error() string {
	return fmt.Sprintf("local store %s %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *LocalStoreError) Unwrap() error { return e.Err }

// ExportError is returned by manual exports. Exports are never queued.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
