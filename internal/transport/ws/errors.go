package ws

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

// toRPCError converts service errors into JSON-RPC error objects. Anything
// not mapped here is reported as a generic internal error; the detail was
// already logged by the service layer.
func (h *Handler) toRPCError(ctx context.Context, err error) *Error {
	var invalid *domain.InvalidParameterError
	switch {
	case errors.As(err, &invalid):
		return errInvalidParams(invalid.Param)
	case errors.Is(err, domain.ErrNotFound):
		return &Error{Code: CodeBudgetNotFound, Message: "that budget does not exist"}
	case errors.Is(err, domain.ErrNotAuthorized):
		return &Error{Code: CodeBudgetNotAuthorized, Message: "you do not have permission to view that budget"}
	case errors.Is(err, domain.ErrMalformedAction):
		return &Error{Code: CodeInternalError, Message: "unable to apply action to budget"}
	case errors.Is(err, domain.ErrValidation):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	default:
		h.log.ErrorContext(ctx, "rpc internal error", slog.Any("error", err))
		return &Error{Code: CodeInternalError, Message: "an internal error occurred"}
	}
}
