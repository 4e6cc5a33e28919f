package engine

// EventType classifies lifecycle events emitted during a run.
type EventType string

const (
	EventProgress EventType = "progress_update"
	EventError    EventType = "error"
	EventFinish   EventType = "finish"
)

// Event is a discrete, ordered lifecycle notification. Fields are
// populated per type: Stage/StageProgress/OverallProgress for
// progress updates, ErrorType/Message for non-fatal errors, Result
// for the terminal finish event.
//
// A zero-value Event (empty Type) is a placeholder and must be skipped
// by consumers without side effects.
type Event struct {
	Type EventType

	Stage           string
	StageProgress   float64
	OverallProgress float64

	ErrorType string
	Message   string

	// Result carries the finish payload. The upstream payload shape
	// is not contractually fixed: it is either a *Result or a
	// map[string]any with the same field names. DecodeResult handles
	// both.
	Result any
}
