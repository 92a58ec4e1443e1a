package gesture

// Verdict is the outcome of feeding one pointer sample to a Pattern.
type Verdict int

const (
	// WrongMove means the pointer left the tolerated corridor; the attempt is over.
	WrongMove Verdict = iota
	// InProgress means the attempt is still alive.
	InProgress
	// Completed means the whole gesture was traced.
	Completed
)

func (v Verdict) String() string {
	switch v {
	case WrongMove:
		return "wrong_move"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the verdict ends an attempt.
func (v Verdict) Terminal() bool {
	return v == WrongMove || v == Completed
}

// Pattern is the strategy interface for a recognizable gesture.
// Implementations are not safe for concurrent use; one goroutine owns each instance.
type Pattern interface {
	// ID returns the registry identifier (e.g. "rectangle").
	ID() string

	// CheckPosition consumes one pointer sample.
	CheckPosition(x, y float64) Verdict

	// Reset restores the initial state so the next attempt starts from scratch.
	// Must be called after every terminal verdict.
	Reset()
}
