package products

import "fmt"

// State is the lifecycle of one product form session
type State int

const (
	StateIdle State = iota
	StateValidating
	StateOptimizing
	StateUploading
	StateSaving
	StateDone
	StateError
	StateDeleting
	StateDeleted
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateOptimizing: "optimizing",
	StateUploading:  "uploading",
	StateSaving:     "saving",
	StateDone:       "done",
	StateError:      "error",
	StateDeleting:   "deleting",
	StateDeleted:    "deleted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions lists every legal move. A session that finished, successfully or
// not, may be submitted again.
var transitions = map[State][]State{
	StateIdle:       {StateValidating, StateDeleting},
	StateValidating: {StateOptimizing, StateError},
	StateOptimizing: {StateUploading, StateError},
	StateUploading:  {StateSaving, StateError},
	StateSaving:     {StateDone, StateError},
	StateDone:       {StateValidating, StateDeleting},
	StateError:      {StateValidating, StateDeleting},
	StateDeleting:   {StateDeleted, StateError},
	StateDeleted:    {},
}

// CanTransition reports whether moving from s to next is legal
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Busy reports whether a submission or deletion is in flight
func (s State) Busy() bool {
	switch s {
	case StateValidating, StateOptimizing, StateUploading, StateSaving, StateDeleting:
		return true
	}
	return false
}
