package persist

// Status is the save state exposed to the user.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSaving  Status = "saving"
	StatusFailed  Status = "failed"
	StatusOffline Status = "offline"
	StatusPending Status = "pending"
)

// Settled reports whether nothing is waiting to reach the remote store.
func (s Status) Settled() bool {
	return s == StatusSaved
}
