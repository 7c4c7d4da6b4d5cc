package engine

import "fmt"

// State is the phase of a crawl
type State int

const (
	StateIdle State = iota
	StateAwaitingSectionsMetadata
	StateAwaitingSectionData
	StateAwaitingStopData
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingSectionsMetadata:
		return "AwaitingSectionsMetadata"
	case StateAwaitingSectionData:
		return "AwaitingSectionData"
	case StateAwaitingStopData:
		return "AwaitingStopData"
	case StateComplete:
		return "Complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cursor records which response the engine expects next. Section is set in
// the AwaitingSectionData and AwaitingStopData states, Stop only in
// AwaitingStopData.
type Cursor struct {
	State   State
	Section int
	Stop    int
}

func (c Cursor) String() string {
	switch c.State {
	case StateAwaitingSectionData:
		return fmt.Sprintf("%s(%d)", c.State, c.Section)
	case StateAwaitingStopData:
		return fmt.Sprintf("%s(%d,%d)", c.State, c.Section, c.Stop)
	default:
		return c.State.String()
	}
}

// Awaiting reports whether a crawl is in progress
func (c Cursor) Awaiting() bool {
	return c.State == StateAwaitingSectionsMetadata ||
		c.State == StateAwaitingSectionData ||
		c.State == StateAwaitingStopData
}

func awaitingSectionsMetadata() Cursor {
	return Cursor{State: StateAwaitingSectionsMetadata}
}

func awaitingSectionData(section int) Cursor {
	return Cursor{State: StateAwaitingSectionData, Section: section}
}

func awaitingStopData(section, stop int) Cursor {
	return Cursor{State: StateAwaitingStopData, Section: section, Stop: stop}
}
