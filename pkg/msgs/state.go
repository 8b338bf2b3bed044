package msgs

import "fmt"

// AppState is the rig application state.
type AppState uint8

// Application states. The numeric value is also the wire encoding.
const (
	StandBy AppState = 0
	Running AppState = 1
	Fault   AppState = 2
)

// Next gets the successor in the fixed operating cycle
// StandBy → Running → Fault → StandBy. Values outside the closed set
// are returned unchanged.
func (s AppState) Next() AppState {
	switch s {
	case StandBy:
		return Running
	case Running:
		return Fault
	case Fault:
		return StandBy
	}
	return s
}

// IsValid reports membership in the closed state set.
func (s AppState) IsValid() bool {
	return s <= Fault
}

// String implements fmt.Stringer.
func (s AppState) String() string {
	switch s {
	case StandBy:
		return "StandBy"
	case Running:
		return "Running"
	case Fault:
		return "Fault"
	}
	return fmt.Sprintf("AppState(%d)", uint8(s))
}
