package types

// WorkItemType categorizes the kind of work, ordered by hierarchy depth.
type WorkItemType string

// Work item type constants
const (
	TypeEpic    WorkItemType = "epic"
	TypeFeature WorkItemType = "feature"
	TypeStory   WorkItemType = "story"
	TypeTask    WorkItemType = "task"
	TypeBug     WorkItemType = "bug"
	TypeSubtask WorkItemType = "subtask"
)

// IsValid checks if the work item type value is valid
func (t WorkItemType) IsValid() bool {
	switch t {
	case TypeEpic, TypeFeature, TypeStory, TypeTask, TypeBug, TypeSubtask:
		return true
	}
	return false
}

// legalChildren maps each parent type to the child types it may contain.
// Subtask is a leaf and appears with no entry.
var legalChildren = map[WorkItemType][]WorkItemType{
	TypeEpic:    {TypeFeature, TypeStory},
	TypeFeature: {TypeStory, TypeTask, TypeBug},
	TypeStory:   {TypeTask, TypeBug, TypeSubtask},
	TypeTask:    {TypeSubtask},
	TypeBug:     {TypeSubtask},
}

// CanParent reports whether a work item of type parent may contain a
// child of type child. The table is the single source of truth for both
// creation and re-parenting.
func CanParent(parent, child WorkItemType) bool {
	for _, c := range legalChildren[parent] {
		if c == child {
			return true
		}
	}
	return false
}

// LegalChildTypes returns the child types a parent of the given type
// accepts, in display order. Returns nil for leaf types.
func LegalChildTypes(parent WorkItemType) []WorkItemType {
	return legalChildren[parent]
}
