package model

// SessionStatus enumerates proctored session states. The string values are
// persisted on attempts and shown to examiners.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "In Progress"
	SessionStatusCompleted  SessionStatus = "Completed"
	SessionStatusTerminated SessionStatus = "Terminated"
)

// Terminal reports whether no further transitions can leave the status.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusTerminated
}

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusCompleted, SessionStatusTerminated:
		return true
	}
	return false
}

// StreamQuery identifies the student opening a proctored exam stream.
type StreamQuery struct {
	StudentName string `form:"student_name" binding:"required,min=1,max=255"`
	StudentID   string `form:"student_id" binding:"required,min=1,max=64"`
}
