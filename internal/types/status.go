package types

// CoreStatusType identifies one of the seeded workflow statuses.
type CoreStatusType string

// Core status type constants
const (
	CoreNew        CoreStatusType = "new"
	CoreInProgress CoreStatusType = "in_progress"
	CoreReview     CoreStatusType = "review"
	CoreDone       CoreStatusType = "done"
	CoreBlocked    CoreStatusType = "blocked"
)

// IsValid checks if the core status type value is valid
func (c CoreStatusType) IsValid() bool {
	switch c {
	case CoreNew, CoreInProgress, CoreReview, CoreDone, CoreBlocked:
		return true
	}
	return false
}

// CoreStatusSeed describes one seeded workflow status.
type CoreStatusSeed struct {
	Type  CoreStatusType
	Name  string
	Color string
	Order int
}

// CoreStatusSeeds returns the four statuses seeded at project creation,
// in board order. Names and colors are fixed; a core status is never
// renamed or deleted after seeding.
func CoreStatusSeeds() []CoreStatusSeed {
	return []CoreStatusSeed{
		{Type: CoreNew, Name: "New", Color: "#6b7280", Order: 1},
		{Type: CoreInProgress, Name: "In Progress", Color: "#3b82f6", Order: 2},
		{Type: CoreReview, Name: "Review", Color: "#f59e0b", Order: 3},
		{Type: CoreDone, Name: "Done", Color: "#22c55e", Order: 4},
	}
}

// SprintStatus represents the current state of a sprint.
type SprintStatus string

// Sprint status constants
const (
	SprintPlanning  SprintStatus = "planning"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

// IsValid checks if the sprint status value is valid
func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintPlanning, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a sprint may move from s to next.
// Transitions are strictly forward: Planning -> Active -> Completed.
func (s SprintStatus) CanTransition(next SprintStatus) bool {
	switch s {
	case SprintPlanning:
		return next == SprintActive
	case SprintActive:
		return next == SprintCompleted
	}
	return false
}

// TicketStatus represents the current state of a file ticket.
//
// The lifecycle is Created -> InTransit -> Received -> Processing ->
// Approved|Rejected -> Completed, with Lost reachable from any
// non-terminal state. The field is flat: Transfer and Receive set it as
// a side effect, and UpdateTicketStatus accepts any valid value.
type TicketStatus string

// File ticket status constants
const (
	TicketCreated    TicketStatus = "created"
	TicketInTransit  TicketStatus = "in_transit"
	TicketReceived   TicketStatus = "received"
	TicketProcessing TicketStatus = "processing"
	TicketApproved   TicketStatus = "approved"
	TicketRejected   TicketStatus = "rejected"
	TicketCompleted  TicketStatus = "completed"
	TicketLost       TicketStatus = "lost"
)

// IsValid checks if the ticket status value is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketCreated, TicketInTransit, TicketReceived, TicketProcessing,
		TicketApproved, TicketRejected, TicketCompleted, TicketLost:
		return true
	}
	return false
}

// IsTerminal reports whether the ticket status admits no further moves.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketCompleted || s == TicketLost
}
