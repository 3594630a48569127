package server

import (
	"context"
	"scrim-manager/internal/auth"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
)

var adminProcedures = map[string]bool{
	AddPlayerProcedure:      true,
	UpdatePlayerProcedure:   true,
	RemovePlayerProcedure:   true,
	AssignSideProcedure:     true,
	SwapSideProcedure:       true,
	ImportPlayersProcedure:  true,
	BalanceTeamsProcedure:   true,
	ApplyCandidateProcedure: true,
	CancelUserBetsProcedure: true,
	AdjustBalanceProcedure:  true,
	SettleMatchProcedure:    true,
	LogoutProcedure:         true,
}

// authInterceptor marks requests carrying a live session token as admin and
// rejects admin procedures without one.
func authInterceptor(sessions *auth.Service) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if sessions.Validate(bearerToken(req.Header().Get("Authorization"))) {
				ctx = auth.WithAdmin(ctx)
			}
			if adminProcedures[req.Spec().Procedure] && !auth.IsAdmin(ctx) {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrUnauthenticated)
			}
			return next(ctx, req)
		}
	}
}

func validationInterceptor(validate *validator.Validate) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if err := validate.Struct(req.Any()); err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}
			return next(ctx, req)
		}
	}
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
