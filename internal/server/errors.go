package server

import (
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/session"
)

type fieldViolation struct {
	field       string
	description string
}

// invalidArgument returns a CodeInvalidArgument error carrying a BadRequest detail
func invalidArgument(violations ...fieldViolation) *connect.Error {
	messages := make([]string, 0, len(violations))
	details := make([]*errdetails.BadRequest_FieldViolation, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, fmt.Sprintf("%s: %s", v.field, v.description))
		details = append(details, &errdetails.BadRequest_FieldViolation{
			Field:       v.field,
			Description: v.description,
		})
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, errors.New(strings.Join(messages, ", ")))
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: details,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func requireSessionID(sessionID string) *connect.Error {
	if strings.TrimSpace(sessionID) == "" {
		return invalidArgument(fieldViolation{field: "session_id", description: "value is required"})
	}
	return nil
}

// sessionError maps controller errors to connect codes
func sessionError(err error) *connect.Error {
	switch {
	case errors.Is(err, session.ErrNoCards):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, session.ErrNotStarted), errors.Is(err, session.ErrAlreadyAnswered):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, deck.ErrDeckNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
