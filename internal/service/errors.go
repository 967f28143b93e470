package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledgererr"
)

// toConnectError maps a ledger error to the Connect code clients act on.
// Lock timeouts map to Unavailable so clients know the call can be retried.
func toConnectError(err error) *connect.Error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, ledgererr.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledgererr.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledgererr.ErrLockTimeout):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, ledgererr.ErrConsistency):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// fail logs a failed RPC at a level matching its cause and returns the
// Connect error.
func fail(op string, err error, args ...any) *connect.Error {
	ce := toConnectError(err)
	args = append(args, "code", ce.Code(), "error", err)
	switch ce.Code() {
	case connect.CodeInternal, connect.CodeDataLoss:
		slog.Error(op+" failed", args...)
	default:
		slog.Warn(op+" failed", args...)
	}
	return ce
}
