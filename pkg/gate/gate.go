package gate

// Status is the tri-state classification of a quality gate.
type Status int

const (
	StatusPass Status = iota + 1
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the build-facing result of a gate evaluation.
type Outcome struct {
	Continue bool
	Status   Status
}

// Decide applies the outcome policy. WARN marks the build unstable but
// still lets it continue; FAIL always stops it.
//
// ignoreWarnings currently has no effect: WARN passes with or without it
// and FAIL is never relaxed.
func Decide(status Status, ignoreWarnings bool) Outcome {
	switch status {
	case StatusPass, StatusWarn:
		return Outcome{Continue: true, Status: status}
	default:
		return Outcome{Continue: false, Status: status}
	}
}
