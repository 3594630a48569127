// Package metrics exposes Prometheus collectors for roster and ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	BalancerRuns       *prometheus.CounterVec
	BalancerImbalance  prometheus.Histogram
	RosterMutations    *prometheus.CounterVec
	BetsPlaced         *prometheus.CounterVec
	StakePlaced        *prometheus.CounterVec
	BetsRejected       *prometheus.CounterVec
	Refunds            prometheus.Counter
	Settlements        *prometheus.CounterVec
	PayoutsCredited    prometheus.Counter
	PoolForfeited      prometheus.Counter
	SettlementDuration prometheus.Histogram
	Logins             *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		BalancerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_balancer_runs_total",
				Help: "Team balancing runs by strategy",
			},
			[]string{"strategy"},
		),
		BalancerImbalance: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scrims_balancer_best_imbalance",
				Help:    "Rating difference of the best candidate per run",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		RosterMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_roster_mutations_total",
				Help: "Roster changes by operation",
			},
			[]string{"op"},
		),
		BetsPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_bets_placed_total",
				Help: "Accepted wagers by side",
			},
			[]string{"side"},
		),
		StakePlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_stake_placed_units_total",
				Help: "Currency units staked by side",
			},
			[]string{"side"},
		),
		BetsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_bets_rejected_total",
				Help: "Rejected wagers by reason",
			},
			[]string{"reason"},
		),
		Refunds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scrims_refunded_units_total",
				Help: "Currency units returned by bet cancellation",
			},
		),
		Settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_settlements_total",
				Help: "Settled matches by winning side",
			},
			[]string{"winner"},
		),
		PayoutsCredited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scrims_payout_units_total",
				Help: "Currency units credited by settlement",
			},
		),
		PoolForfeited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scrims_forfeited_units_total",
				Help: "Losing stake left without a recipient",
			},
		),
		SettlementDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scrims_settlement_duration_seconds",
				Help:    "Time spent settling a match, lock wait included",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrims_logins_total",
				Help: "Admin login attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.BalancerRuns,
		m.BalancerImbalance,
		m.RosterMutations,
		m.BetsPlaced,
		m.StakePlaced,
		m.BetsRejected,
		m.Refunds,
		m.Settlements,
		m.PayoutsCredited,
		m.PoolForfeited,
		m.SettlementDuration,
		m.Logins,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
