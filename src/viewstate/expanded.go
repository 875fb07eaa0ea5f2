package viewstate

// ExpandedActionType names a transition of the expanded configuration list
type ExpandedActionType string

const (
	ExpandedAdd    ExpandedActionType = "ADD"
	ExpandedRemove ExpandedActionType = "REMOVE"
)

// ExpandedAction is dispatched to ReduceExpanded
type ExpandedAction struct {
	Type ExpandedActionType
	ID   int
}

// ReduceExpanded applies action to the list of expanded configuration ids.
// ADD appends without a duplicate check, REMOVE drops every occurrence and any
// other action returns state unchanged.
func ReduceExpanded(state []int, action ExpandedAction) []int {
	switch action.Type {
	case ExpandedAdd:
		next := make([]int, 0, len(state)+1)
		next = append(next, state...)
		return append(next, action.ID)
	case ExpandedRemove:
		next := make([]int, 0, len(state))
		for _, id := range state {
			if id != action.ID {
				next = append(next, id)
			}
		}
		return next
	default:
		return state
	}
}
