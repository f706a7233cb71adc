package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/formulary/internal/types"
)

// errNoFormStore is returned for form_id requests when the service runs
// without a database.
var errNoFormStore = errors.New("form store not configured")

// errMalformedRequest marks request documents that do not decode.
var errMalformedRequest = errors.New("malformed request")

// toStatus maps domain errors to gRPC status codes.
// Validation errors map to INVALID_ARGUMENT.
// Missing forms map to NOT_FOUND.
// Context timeouts map to DEADLINE_EXCEEDED.
// Anything else is a storage failure and maps to UNAVAILABLE.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Unavailable
	switch {
	case errors.Is(err, errMalformedRequest),
		errors.Is(err, types.ErrInvalidFormID),
		errors.Is(err, types.ErrTooManyVariables):
		code = codes.InvalidArgument
	case errors.Is(err, types.ErrFormNotFound):
		code = codes.NotFound
	case errors.Is(err, errNoFormStore):
		code = codes.FailedPrecondition
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}
