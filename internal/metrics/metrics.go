// Package metrics provides Prometheus instrumentation for the matchmaking
// pipeline workers. Each worker binary exposes these on its own /metrics
// listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MatchRequestsTotal counts matchmaking.request messages, labeled by
	// result: "served", "no_candidate", "cooldown", "dropped".
	MatchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_match_requests_total",
		Help: "Matchmaking requests processed",
	}, []string{"result"})

	// InteractionsTotal counts recorded decisions, labeled by outcome:
	// "like", "skip", "match", "duplicate".
	InteractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_interactions_total",
		Help: "Like/skip decisions processed",
	}, []string{"outcome"})

	// MatchesCreatedTotal counts Match rows created by this instance.
	MatchesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dating_matches_created_total",
		Help: "Mutual-like matches created",
	})

	// NotificationsTotal counts delivered cards, labeled by result:
	// "sent", "text_only", "failed".
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_notifications_total",
		Help: "Notification cards delivered",
	}, []string{"result"})

	// RatingRecomputesTotal counts rating recomputes, labeled by result:
	// "ok", "failed".
	RatingRecomputesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_rating_recomputes_total",
		Help: "Profile rating recomputations",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		MatchRequestsTotal,
		InteractionsTotal,
		MatchesCreatedTotal,
		NotificationsTotal,
		RatingRecomputesTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
