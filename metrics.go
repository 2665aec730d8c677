package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPastesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pasteforge_pastes_created_total",
		Help: "Pastes created, by visibility.",
	}, []string{"visibility"})

	metricPasteViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasteforge_paste_views_total",
		Help: "Successful paste reads.",
	})

	metricPasteForks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasteforge_paste_forks_total",
		Help: "Pastes forked.",
	})

	metricPasteBurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasteforge_paste_burns_total",
		Help: "Burn-after-read pastes destroyed on first view.",
	})

	metricLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pasteforge_logins_total",
		Help: "Login attempts, by outcome.",
	}, []string{"outcome"})

	metricRegistrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasteforge_registrations_total",
		Help: "Successful user registrations.",
	})

	metricRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pasteforge_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by bucket.",
	}, []string{"bucket"})
)
