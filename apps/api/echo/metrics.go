package echoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_application_submissions_total",
		Help: "Application submissions by outcome (created, updated, rejected).",
	}, []string{"outcome"})

	draftSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launchpad_application_draft_saves_total",
		Help: "Wizard draft saves.",
	})
)
