package policy

import "fmt"

// Reason identifies the rule a transaction failed.
type Reason int

// Set of reasons a transaction can be rejected for.
const (
	ReasonNone Reason = iota
	ReasonVersion
	ReasonLocktime
	ReasonNoPrevOut
	ReasonInputValue
	ReasonInputScript
	ReasonOutputValue
	ReasonOutputScript
)

var reasons = map[Reason]string{
	ReasonNone:         "none",
	ReasonVersion:      "version",
	ReasonLocktime:     "locktime",
	ReasonNoPrevOut:    "no-prevout",
	ReasonInputValue:   "input-value",
	ReasonInputScript:  "input-script",
	ReasonOutputValue:  "output-value",
	ReasonOutputScript: "output-script",
}

// String implements the fmt.Stringer interface.
func (r Reason) String() string {
	s, exists := reasons[r]
	if !exists {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return s
}

// =============================================================================

// Result is the outcome of checking a transaction against a policy. Index
// is the offending input or output, or -1 when the failure is not tied to
// one.
type Result struct {
	Accepted bool
	Reason   Reason
	Index    int
}

func reject(reason Reason, index int) Result {
	return Result{Reason: reason, Index: index}
}

// String implements the fmt.Stringer interface for logging.
func (r Result) String() string {
	switch {
	case r.Accepted:
		return "accepted"
	case r.Index >= 0:
		return fmt.Sprintf("rejected: %s[%d]", r.Reason, r.Index)
	default:
		return fmt.Sprintf("rejected: %s", r.Reason)
	}
}
