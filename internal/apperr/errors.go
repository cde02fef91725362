package apperr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the coarse error class. Callers decide how to react from the kind:
// only KindTransient may be retried automatically.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
)

// Reason is the specific, user-facing cause of a rejection.
type Reason string

const (
	ReasonInvalidInput    Reason = "invalid_input"
	ReasonInvalidSchedule Reason = "invalid_schedule"
	ReasonEmptyTimeline   Reason = "empty_timeline"

	// check-in protocol
	ReasonInvalidFormat     Reason = "invalid_format"
	ReasonWrongProgram      Reason = "wrong_program"
	ReasonStaleOrFutureCode Reason = "stale_or_future_code"
	ReasonNotEnrolled       Reason = "not_enrolled"
	ReasonDuplicateCheckIn  Reason = "duplicate_checkin"

	// enrollment
	ReasonSlotsExhausted    Reason = "slots_exhausted"
	ReasonAlreadyApplied    Reason = "already_applied"
	ReasonProgramClosed     Reason = "program_closed"
	ReasonScheduleConflict  Reason = "schedule_conflict"
	ReasonInvalidTransition Reason = "invalid_transition"

	// certificates
	ReasonAttendanceIncomplete Reason = "attendance_incomplete"
	ReasonAlreadyPending       Reason = "already_pending"
	ReasonPermanentlyRejected  Reason = "permanently_rejected"
	ReasonSerialUnavailable    Reason = "serial_unavailable"

	ReasonProgramNotFound    Reason = "program_not_found"
	ReasonEnrollmentNotFound Reason = "enrollment_not_found"
	ReasonRequestNotFound    Reason = "request_not_found"

	ReasonStorageUnavailable Reason = "storage_unavailable"
)

// FieldError points a validation failure at a single input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the engine's error type. Details carries the context a caller
// needs to explain the situation (current counts, current status).
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Details map[string]any
	Fields  []FieldError
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Reason))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Details[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a detail value and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, reason Reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func Validation(reason Reason, format string, args ...any) *Error {
	return newError(KindValidation, reason, format, args...)
}

func Conflict(reason Reason, format string, args ...any) *Error {
	return newError(KindConflict, reason, format, args...)
}

func NotFound(reason Reason, format string, args ...any) *Error {
	return newError(KindNotFound, reason, format, args...)
}

// Transient wraps an infrastructure failure that the calling layer may retry.
func Transient(err error) *Error {
	return &Error{
		Kind:    KindTransient,
		Reason:  ReasonStorageUnavailable,
		Message: "storage temporarily unavailable",
		Err:     err,
	}
}

// InvalidFields builds a validation error from per-field failures.
func InvalidFields(fields ...FieldError) *Error {
	e := Validation(ReasonInvalidInput, "invalid request")
	e.Fields = fields
	return e
}

// AttendanceIncomplete reports the exact fraction the participant attended.
func AttendanceIncomplete(attended, total int) *Error {
	return Conflict(ReasonAttendanceIncomplete, "attended %d of %d sessions", attended, total).
		With("attended", attended).
		With("total", total)
}

func AlreadyPending(requestID string) *Error {
	return Conflict(ReasonAlreadyPending, "a certificate request is already pending").
		With("request_id", requestID)
}

func PermanentlyRejected(requestID, why string) *Error {
	e := Conflict(ReasonPermanentlyRejected, "certificate request was rejected; contact the program administrator").
		With("request_id", requestID)
	if why != "" {
		e.With("rejection_reason", why)
	}
	return e
}

func SlotsExhausted(programID string, capacity int) *Error {
	return Conflict(ReasonSlotsExhausted, "no slots remaining").
		With("program_id", programID).
		With("slots_remaining", 0).
		With("capacity", capacity)
}

// As returns the engine error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ReasonOf returns the reason of the engine error in err's chain, or "".
func ReasonOf(err error) Reason {
	if e, ok := As(err); ok {
		return e.Reason
	}
	return ""
}

// KindOf returns the kind of the engine error in err's chain, or "".
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given reason.
func Is(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}

// IsRetryable reports whether the calling layer may retry err with backoff.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// Classify converts storage-level failures into transient engine errors.
// Engine errors pass through untouched; anything else is returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return Transient(err)
	}
	return err
}
