package analytics

import (
	"errors"
	"fmt"
)

// ErrMalformedMonth is returned when a month label is not in YYYY-MM form.
var ErrMalformedMonth = errors.New("malformed month, expected YYYY-MM")

// ErrInvariantViolation is returned by Engine.Compute when an aggregation pass
// detects an impossible result, such as delinquent MRR above gross.
var ErrInvariantViolation = errors.New("analytics invariant violated")

// InvalidRangeError is returned when the requested window ends before it starts.
type InvalidRangeError struct {
	Start Month
	End   Month
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid month range: end %s is before start %s", e.End, e.Start)
}

// RecordStoreUnavailableError wraps a failed or timed out fetch from the record store.
// The computation is abandoned as a whole; retry policy belongs to the caller.
type RecordStoreUnavailableError struct {
	Op  string
	Err error
}

func (e *RecordStoreUnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable (%s): %v", e.Op, e.Err)
}

func (e *RecordStoreUnavailableError) Unwrap() error { return e.Err }

// MalformedRecordError describes a subscription row dropped by the normalizer.
// It is reported alongside results and never aborts a computation.
type MalformedRecordError struct {
	RecordID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed subscription %q: %s", e.RecordID, e.Reason)
}
