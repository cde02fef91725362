package rpc

import (
	"encoding/json"
	"errors"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/training/internal/apperr"
)

// Rejections carry their reason and details as response metadata so a
// client can tell every rejection apart without parsing messages.
const (
	ReasonHeader  = "Training-Reason"
	DetailsHeader = "Training-Details"
)

// CodeFor maps an engine error onto a Connect status code.
func CodeFor(e *apperr.Error) connect.Code {
	switch e.Kind {
	case apperr.KindValidation:
		return connect.CodeInvalidArgument
	case apperr.KindNotFound:
		return connect.CodeNotFound
	case apperr.KindTransient:
		return connect.CodeUnavailable
	case apperr.KindConflict:
		switch e.Reason {
		case apperr.ReasonSlotsExhausted:
			return connect.CodeResourceExhausted
		case apperr.ReasonAlreadyApplied, apperr.ReasonAlreadyPending:
			return connect.CodeAlreadyExists
		default:
			return connect.CodeFailedPrecondition
		}
	default:
		return connect.CodeInternal
	}
}

// ToConnectError converts err for the wire. Errors that are not engine
// errors become Internal without leaking their text.
func ToConnectError(err error) error {
	if err == nil {
		return nil
	}
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	e, ok := apperr.As(apperr.Classify(err))
	if !ok {
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	cerr = connect.NewError(CodeFor(e), errors.New(e.Message))
	cerr.Meta().Set(ReasonHeader, string(e.Reason))

	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	if len(e.Fields) > 0 {
		details["fields"] = e.Fields
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			cerr.Meta().Set(DetailsHeader, string(b))
		}
	}
	return cerr
}

// ReasonOf returns the rejection reason carried by a Connect error.
func ReasonOf(err error) apperr.Reason {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return ""
	}
	return apperr.Reason(cerr.Meta().Get(ReasonHeader))
}

// DetailsOf decodes the details carried by a Connect error.
func DetailsOf(err error) map[string]any {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return nil
	}
	raw := cerr.Meta().Get(DetailsHeader)
	if raw == "" {
		return nil
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil
	}
	return details
}
