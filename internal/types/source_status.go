package types

// SourceStatus is the closed set of processing states a source moves
// through. The status column never holds any other value; writes go
// through CanTransition so an illegal edge (completed -> uploading, say)
// is rejected instead of silently stored.
type SourceStatus string

const (
	SourceStatusPending    SourceStatus = "pending"
	SourceStatusUploading  SourceStatus = "uploading"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusCompleted  SourceStatus = "completed"
	SourceStatusFailed     SourceStatus = "failed"
)

func (s SourceStatus) Valid() bool {
	switch s {
	case SourceStatusPending, SourceStatusUploading, SourceStatusProcessing,
		SourceStatusCompleted, SourceStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status has no outgoing edges. A terminal
// source only leaves its state through a full re-submission, which resets
// it to pending and counts as a new processing attempt.
func (s SourceStatus) Terminal() bool {
	return s == SourceStatusCompleted || s == SourceStatusFailed
}

var sourceTransitions = map[SourceStatus][]SourceStatus{
	SourceStatusPending:    {SourceStatusUploading, SourceStatusProcessing, SourceStatusFailed},
	SourceStatusUploading:  {SourceStatusProcessing, SourceStatusFailed},
	SourceStatusProcessing: {SourceStatusCompleted, SourceStatusFailed},
}

func CanTransition(from, to SourceStatus) bool {
	for _, next := range sourceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanUpload reports whether a source of the given type may enter the
// uploading state. Only file-backed sources transfer bytes; the rest go
// straight from pending to processing.
func CanUpload(t SourceType, from SourceStatus) bool {
	return t.RequiresUpload() && CanTransition(from, SourceStatusUploading)
}
