package server

import (
	"context"
	"errors"
	"scrim-manager/internal/auth"
	"scrim-manager/internal/domain"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// toConnectError maps domain error kinds onto connect codes. Anything
// unrecognized is logged and reported as internal.
func toConnectError(ctx context.Context, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrDuplicateName):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidBettor),
		errors.Is(err, domain.ErrInvalidMatch):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrEmptyRoster),
		errors.Is(err, domain.ErrNotAssigned),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrSideClosed),
		errors.Is(err, domain.ErrNoBalanceSession),
		errors.Is(err, domain.ErrCandidateRange):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrThrottled):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
