package store

import (
	"typing-battle/client/internal/state"
)

// cloneValue deep-copies every container the state tree can hold. Reads
// hand out clones so callers can never mutate internal state, and writes
// clone incoming values so callers cannot keep a live reference either.
func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(v))
		for key, child := range v {
			cloned[key] = cloneValue(child)
		}
		return cloned
	case []any:
		cloned := make([]any, len(v))
		for i, child := range v {
			cloned[i] = cloneValue(child)
		}
		return cloned
	case Players:
		return v.Clone()
	case state.Player:
		return v.Clone()
	case []state.Word:
		return append([]state.Word(nil), v...)
	case []state.Item:
		return append([]state.Item(nil), v...)
	case []state.ActiveEffect:
		return append([]state.ActiveEffect(nil), v...)
	case []state.Notification:
		return append([]state.Notification(nil), v...)
	default:
		// Scalars and plain value structs (Camera, MapSize, Word, Item)
		// copy on assignment.
		return v
	}
}

// cloneTree deep-copies a whole state tree for history snapshots.
func cloneTree(tree map[string]any) map[string]any {
	return cloneValue(tree).(map[string]any)
}
