package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts domain and infra errors into gRPC-friendly status errors
// for the platform's RPC edge. Keeps service layers clean by centralizing
// error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var domain *Error
	if errors.As(err, &domain) {
		switch domain.Kind {
		case KindValidation:
			return status.Error(codes.InvalidArgument, domain.Msg)
		case KindInvalidState:
			return status.Error(codes.FailedPrecondition, domain.Msg)
		case KindConflict:
			return status.Error(codes.AlreadyExists, domain.Msg)
		case KindNotFound:
			return status.Error(codes.NotFound, domain.Msg)
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
