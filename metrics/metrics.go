package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"commitcast/events"
)

var (
	UsersRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_users_registered_total",
		Help: "Accounts created",
	})
	CommitmentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_commitments_created_total",
		Help: "Commitments published",
	})
	CommitmentsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commitcast_commitments_resolved_total",
		Help: "Commitments resolved, by outcome",
	}, []string{"outcome"})
	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_bets_placed_total",
		Help: "Bets placed",
	})
	BetsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_bets_cancelled_total",
		Help: "Bets cancelled before resolution",
	})
	BetsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_bets_settled_total",
		Help: "Bets settled",
	})
	PayoutUnits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitcast_payout_units_total",
		Help: "Currency units distributed to winners",
	})
)

// Register registers all collectors with the default registry
func Register() {
	prometheus.MustRegister(
		UsersRegistered,
		CommitmentsCreated,
		CommitmentsResolved,
		BetsPlaced,
		BetsCancelled,
		BetsSettled,
		PayoutUnits,
	)
}

// SubscribeToBus feeds the counters from domain events so the services
// stay unaware of instrumentation.
func SubscribeToBus(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, event events.Event) {
		UsersRegistered.Inc()
	})

	bus.Subscribe(events.EventTypeCommitmentCreated, func(ctx context.Context, event events.Event) {
		CommitmentsCreated.Inc()
	})

	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, event events.Event) {
		BetsPlaced.Inc()
	})

	bus.Subscribe(events.EventTypeBetCancelled, func(ctx context.Context, event events.Event) {
		BetsCancelled.Inc()
	})

	bus.Subscribe(events.EventTypeCommitmentResolved, func(ctx context.Context, event events.Event) {
		resolved, ok := event.(events.CommitmentResolvedEvent)
		if !ok {
			return
		}
		CommitmentsResolved.WithLabelValues(string(resolved.Outcome)).Inc()
		BetsSettled.Add(float64(resolved.BetsSettled))
		PayoutUnits.Add(float64(resolved.TotalDistributed))
	})
}
