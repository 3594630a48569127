package server

import (
	"context"
	"net/http"
	"scrim-manager/internal/auth"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"scrim-manager/internal/service"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const ScrimServicePath = "/scrims.v1.ScrimService/"

const (
	ListPlayersProcedure     = ScrimServicePath + "ListPlayers"
	AddPlayerProcedure       = ScrimServicePath + "AddPlayer"
	UpdatePlayerProcedure    = ScrimServicePath + "UpdatePlayer"
	RemovePlayerProcedure    = ScrimServicePath + "RemovePlayer"
	AssignSideProcedure      = ScrimServicePath + "AssignSide"
	SwapSideProcedure        = ScrimServicePath + "SwapSide"
	ImportPlayersProcedure   = ScrimServicePath + "ImportPlayers"
	BalanceTeamsProcedure    = ScrimServicePath + "BalanceTeams"
	ListCandidatesProcedure  = ScrimServicePath + "ListCandidates"
	ApplyCandidateProcedure  = ScrimServicePath + "ApplyCandidate"
	PlaceBetProcedure        = ScrimServicePath + "PlaceBet"
	ListBetsProcedure        = ScrimServicePath + "ListBets"
	GetPoolsProcedure        = ScrimServicePath + "GetPools"
	ListOpenMatchesProcedure = ScrimServicePath + "ListOpenMatches"
	CancelUserBetsProcedure  = ScrimServicePath + "CancelUserBets"
	GetBalanceProcedure      = ScrimServicePath + "GetBalance"
	ListBalancesProcedure    = ScrimServicePath + "ListBalances"
	AdjustBalanceProcedure   = ScrimServicePath + "AdjustBalance"
	SettleMatchProcedure     = ScrimServicePath + "SettleMatch"
	ListSettlementsProcedure = ScrimServicePath + "ListSettlements"
	LoginProcedure           = ScrimServicePath + "Login"
	LogoutProcedure          = ScrimServicePath + "Logout"
)

type ScrimServer struct {
	rosterSvc     *service.RosterService
	balanceSvc    *service.BalanceService
	ledgerSvc     *service.LedgerService
	settlementSvc *service.SettlementService
	sessions      *auth.Service
	metrics       *metrics.Metrics
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewScrimServer(
	rosterSvc *service.RosterService,
	balanceSvc *service.BalanceService,
	ledgerSvc *service.LedgerService,
	settlementSvc *service.SettlementService,
	sessions *auth.Service,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ScrimServer {
	return &ScrimServer{
		rosterSvc:     rosterSvc,
		balanceSvc:    balanceSvc,
		ledgerSvc:     ledgerSvc,
		settlementSvc: settlementSvc,
		sessions:      sessions,
		metrics:       m,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

// Handler returns the service path prefix and the handler serving every
// procedure under it.
func (s *ScrimServer) Handler() (string, http.Handler) {
	opts := connect.WithHandlerOptions(
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(authInterceptor(s.sessions), validationInterceptor(s.validate)),
	)

	mux := http.NewServeMux()
	mux.Handle(ListPlayersProcedure, connect.NewUnaryHandler(ListPlayersProcedure, s.ListPlayers, opts))
	mux.Handle(AddPlayerProcedure, connect.NewUnaryHandler(AddPlayerProcedure, s.AddPlayer, opts))
	mux.Handle(UpdatePlayerProcedure, connect.NewUnaryHandler(UpdatePlayerProcedure, s.UpdatePlayer, opts))
	mux.Handle(RemovePlayerProcedure, connect.NewUnaryHandler(RemovePlayerProcedure, s.RemovePlayer, opts))
	mux.Handle(AssignSideProcedure, connect.NewUnaryHandler(AssignSideProcedure, s.AssignSide, opts))
	mux.Handle(SwapSideProcedure, connect.NewUnaryHandler(SwapSideProcedure, s.SwapSide, opts))
	mux.Handle(ImportPlayersProcedure, connect.NewUnaryHandler(ImportPlayersProcedure, s.ImportPlayers, opts))
	mux.Handle(BalanceTeamsProcedure, connect.NewUnaryHandler(BalanceTeamsProcedure, s.BalanceTeams, opts))
	mux.Handle(ListCandidatesProcedure, connect.NewUnaryHandler(ListCandidatesProcedure, s.ListCandidates, opts))
	mux.Handle(ApplyCandidateProcedure, connect.NewUnaryHandler(ApplyCandidateProcedure, s.ApplyCandidate, opts))
	mux.Handle(PlaceBetProcedure, connect.NewUnaryHandler(PlaceBetProcedure, s.PlaceBet, opts))
	mux.Handle(ListBetsProcedure, connect.NewUnaryHandler(ListBetsProcedure, s.ListBets, opts))
	mux.Handle(GetPoolsProcedure, connect.NewUnaryHandler(GetPoolsProcedure, s.GetPools, opts))
	mux.Handle(ListOpenMatchesProcedure, connect.NewUnaryHandler(ListOpenMatchesProcedure, s.ListOpenMatches, opts))
	mux.Handle(CancelUserBetsProcedure, connect.NewUnaryHandler(CancelUserBetsProcedure, s.CancelUserBets, opts))
	mux.Handle(GetBalanceProcedure, connect.NewUnaryHandler(GetBalanceProcedure, s.GetBalance, opts))
	mux.Handle(ListBalancesProcedure, connect.NewUnaryHandler(ListBalancesProcedure, s.ListBalances, opts))
	mux.Handle(AdjustBalanceProcedure, connect.NewUnaryHandler(AdjustBalanceProcedure, s.AdjustBalance, opts))
	mux.Handle(SettleMatchProcedure, connect.NewUnaryHandler(SettleMatchProcedure, s.SettleMatch, opts))
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, s.ListSettlements, opts))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, s.Login, opts))
	mux.Handle(LogoutProcedure, connect.NewUnaryHandler(LogoutProcedure, s.Logout, opts))
	return ScrimServicePath, mux
}

func (s *ScrimServer) ListPlayers(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListPlayersResponse], error) {
	players, err := s.rosterSvc.List(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	totals, err := s.rosterSvc.Totals(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	return connect.NewResponse(&ListPlayersResponse{
		Players: lo.Map(players, func(p domain.Player, _ int) Player { return toPlayer(p) }),
		Totals:  Totals{A: totals.A, B: totals.B, Imbalance: totals.Imbalance},
	}), nil
}

func (s *ScrimServer) AddPlayer(ctx context.Context, req *connect.Request[AddPlayerRequest]) (*connect.Response[PlayerResponse], error) {
	p, err := s.rosterSvc.Add(ctx, req.Msg.Name, req.Msg.Rating)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerResponse{Player: toPlayer(p)}), nil
}

func (s *ScrimServer) UpdatePlayer(ctx context.Context, req *connect.Request[UpdatePlayerRequest]) (*connect.Response[PlayerResponse], error) {
	p, err := s.rosterSvc.Update(ctx, req.Msg.Name, req.Msg.Rating, req.Msg.Hero)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&PlayerResponse{Player: toPlayer(p)}), nil
}

func (s *ScrimServer) RemovePlayer(ctx context.Context, req *connect.Request[RemovePlayerRequest]) (*connect.Response[Empty], error) {
	if err := s.rosterSvc.Remove(ctx, req.Msg.Name); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *ScrimServer) AssignSide(ctx context.Context, req *connect.Request[AssignSideRequest]) (*connect.Response[Empty], error) {
	side, err := domain.ParseSide(req.Msg.Side)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	if err := s.rosterSvc.Assign(ctx, req.Msg.Name, side); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *ScrimServer) SwapSide(ctx context.Context, req *connect.Request[SwapSideRequest]) (*connect.Response[SwapSideResponse], error) {
	side, err := s.rosterSvc.Swap(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&SwapSideResponse{Side: string(side)}), nil
}

func (s *ScrimServer) ImportPlayers(ctx context.Context, req *connect.Request[ImportPlayersRequest]) (*connect.Response[ImportPlayersResponse], error) {
	results, err := s.rosterSvc.Import(ctx, req.Msg.AccountIDs)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	return connect.NewResponse(&ImportPlayersResponse{
		Players: lo.Map(results, func(r service.ImportResult, _ int) ImportedPlayer {
			return ImportedPlayer{AccountID: r.AccountID, Created: r.Created, Player: toPlayer(r.Player)}
		}),
	}), nil
}

func (s *ScrimServer) BalanceTeams(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[CandidatesResponse], error) {
	session, err := s.balanceSvc.Balance(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	resp := toCandidates(session)
	return connect.NewResponse(&resp), nil
}

func (s *ScrimServer) ListCandidates(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[CandidatesResponse], error) {
	session, err := s.balanceSvc.Session()
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	resp := toCandidates(session)
	return connect.NewResponse(&resp), nil
}

func (s *ScrimServer) ApplyCandidate(ctx context.Context, req *connect.Request[ApplyCandidateRequest]) (*connect.Response[ApplyCandidateResponse], error) {
	c, err := s.balanceSvc.ApplyCandidate(ctx, req.Msg.Index)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ApplyCandidateResponse{Candidate: toCandidate(c)}), nil
}

func (s *ScrimServer) PlaceBet(ctx context.Context, req *connect.Request[PlaceBetRequest]) (*connect.Response[PlaceBetResponse], error) {
	side, err := domain.ParseSide(req.Msg.Side)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	w, err := s.ledgerSvc.PlaceBet(ctx, req.Msg.MatchID, req.Msg.Bettor, req.Msg.Amount, side)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	balance, err := s.ledgerSvc.Balance(ctx, w.Bettor)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	pools, err := s.ledgerSvc.Pools(ctx, w.MatchID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	return connect.NewResponse(&PlaceBetResponse{Wager: toWager(w), Balance: balance, Pools: toPools(pools)}), nil
}

func (s *ScrimServer) ListBets(ctx context.Context, req *connect.Request[MatchRequest]) (*connect.Response[ListBetsResponse], error) {
	wagers, err := s.ledgerSvc.ListBets(ctx, req.Msg.MatchID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	pools, err := s.ledgerSvc.Pools(ctx, req.Msg.MatchID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	return connect.NewResponse(&ListBetsResponse{
		Wagers: lo.Map(wagers, func(w domain.Wager, _ int) Wager { return toWager(w) }),
		Pools:  toPools(pools),
	}), nil
}

func (s *ScrimServer) GetPools(ctx context.Context, req *connect.Request[MatchRequest]) (*connect.Response[GetPoolsResponse], error) {
	pools, err := s.ledgerSvc.Pools(ctx, req.Msg.MatchID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetPoolsResponse{Pools: toPools(pools)}), nil
}

func (s *ScrimServer) ListOpenMatches(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListOpenMatchesResponse], error) {
	matches, err := s.ledgerSvc.ListOpenMatches(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListOpenMatchesResponse{
		Matches: lo.Map(matches, func(m repository.OpenMatch, _ int) OpenMatch { return toOpenMatch(m) }),
	}), nil
}

func (s *ScrimServer) CancelUserBets(ctx context.Context, req *connect.Request[CancelUserBetsRequest]) (*connect.Response[CancelUserBetsResponse], error) {
	refunded, err := s.ledgerSvc.CancelUserBets(ctx, req.Msg.MatchID, req.Msg.Bettor)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&CancelUserBetsResponse{Refunded: refunded}), nil
}

func (s *ScrimServer) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[BalanceResponse], error) {
	balance, err := s.ledgerSvc.Balance(ctx, req.Msg.Bettor)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&BalanceResponse{Bettor: req.Msg.Bettor, Balance: balance}), nil
}

func (s *ScrimServer) ListBalances(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListBalancesResponse], error) {
	balances, err := s.ledgerSvc.ListBalances(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListBalancesResponse{
		Balances: lo.Map(balances, func(b repository.BettorBalance, _ int) BalanceResponse {
			return BalanceResponse{Bettor: b.Bettor, Balance: b.Amount}
		}),
	}), nil
}

func (s *ScrimServer) AdjustBalance(ctx context.Context, req *connect.Request[AdjustBalanceRequest]) (*connect.Response[BalanceResponse], error) {
	balance, err := s.ledgerSvc.AdjustBalance(ctx, req.Msg.Bettor, req.Msg.Delta)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&BalanceResponse{Bettor: req.Msg.Bettor, Balance: balance}), nil
}

func (s *ScrimServer) SettleMatch(ctx context.Context, req *connect.Request[SettleMatchRequest]) (*connect.Response[SettleMatchResponse], error) {
	winner, err := domain.ParseSide(req.Msg.Winner)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	result, err := s.settlementSvc.Settle(ctx, req.Msg.MatchID, winner)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&SettleMatchResponse{Settlement: toSettlement(result)}), nil
}

func (s *ScrimServer) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	settlements, err := s.settlementSvc.List(ctx, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListSettlementsResponse{
		Settlements: lo.Map(settlements, func(st domain.Settlement, _ int) Settlement { return toSettlement(st) }),
	}), nil
}

func (s *ScrimServer) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	token, expires, err := s.sessions.Login(req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, toConnectError(ctx, err)
	}
	s.metrics.Logins.WithLabelValues("ok").Inc()
	return connect.NewResponse(&LoginResponse{Token: token, ExpiresAt: expires}), nil
}

func (s *ScrimServer) Logout(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	s.sessions.Logout(bearerToken(req.Header().Get("Authorization")))
	return connect.NewResponse(&Empty{}), nil
}
