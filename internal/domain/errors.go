package domain

import (
	"fmt"
	"strings"
	"time"
)

// SchemaError reports required fields or columns missing from an input.
// Nothing is silently defaulted: callers get the full list at once.
type SchemaError struct {
	Input  string
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", e.Input, strings.Join(e.Fields, ", "))
}

// UnknownMethodError reports a method tag outside the closed set
// {INMET, Ouzeau, TW_P90}.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q (want %s, %s, or %s)",
		e.Method, MethodINMET, MethodOuzeau, MethodWetBulb)
}

// MissingThresholdError reports a method selected without its required
// threshold parameter. Raised before any per-event computation.
type MissingThresholdError struct {
	Method string
	Param  string
}

func (e *MissingThresholdError) Error() string {
	return fmt.Sprintf("method %s requires threshold parameter %s", e.Method, e.Param)
}

// OverlapError reports two events of the same method claiming the same
// calendar day. Detectors produce non-overlapping events, so this indicates
// corrupted input rather than a tie to break silently.
type OverlapError struct {
	Day      time.Time
	EventIDs [2]string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("events %s and %s overlap on %s",
		e.EventIDs[0], e.EventIDs[1], e.Day.Format("2006-01-02"))
}
